package notification

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/prompt"
)

// Router dispatches inbound notifications to the bound Handler.
//
// A notification received in the foreground is announced with a prompt and
// navigates only if the user picks View. A tapped notification navigates
// immediately.
type Router struct {
	binding   *Binding
	presenter prompt.Presenter
	logger    zerolog.Logger
}

// NewRouter creates a Router reading handlers from binding. A nil binding is
// replaced with an empty one.
func NewRouter(binding *Binding, presenter prompt.Presenter, logger zerolog.Logger) *Router {
	if binding == nil {
		binding = &Binding{}
	}
	return &Router{
		binding:   binding,
		presenter: presenter,
		logger:    logger,
	}
}

// OnForeground announces p and navigates if the user chooses View. It
// reports whether a handler was invoked.
func (r *Router) OnForeground(ctx context.Context, p Payload) bool {
	dest, err := Resolve(p)
	routable := dest != DestinationNone && err == nil
	if err != nil {
		r.logger.Warn().Err(err).Str("kind", string(p.Kind)).Msg("foreground notification cannot be routed")
	}

	pr := Announcement(p, routable)
	if r.presenter == nil {
		return false
	}
	action, perr := r.presenter.Present(ctx, pr)
	if perr != nil {
		r.logger.Warn().Err(perr).Str("kind", string(p.Kind)).Msg("failed to present notification")
		return false
	}
	if !routable || action != prompt.ActionView {
		return false
	}
	return r.navigate(dest, p)
}

// OnResponse navigates for a tapped notification. Payloads without the
// identifiers their kind needs are logged and ignored.
func (r *Router) OnResponse(_ context.Context, p Payload) bool {
	dest, err := Resolve(p)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("kind", string(p.Kind)).
			Str("destination", dest.String()).
			Msg("ignoring notification response")
		return false
	}
	if dest == DestinationNone {
		r.logger.Debug().Str("kind", string(p.Kind)).Msg("notification response has no destination")
		return false
	}
	return r.navigate(dest, p)
}

func (r *Router) navigate(dest Destination, p Payload) (ok bool) {
	h := r.binding.Handler()
	if h == nil {
		r.logger.Debug().Str("destination", dest.String()).Msg("no navigation handler bound")
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("destination", dest.String()).
				Str("panic", fmt.Sprint(rec)).
				Msg("navigation handler panicked")
			ok = false
		}
	}()

	dest.navigate(h, p)
	r.logger.Debug().Str("kind", string(p.Kind)).Str("destination", dest.String()).Msg("navigated")
	return true
}

// Announcement builds the foreground prompt for p. A routable prompt offers
// View and Dismiss; otherwise only OK.
func Announcement(p Payload, routable bool) prompt.Prompt {
	sender := p.SenderName
	if sender == "" {
		sender = "Someone"
	}
	group := p.GroupName
	if group == "" {
		group = "a group"
	}

	var title, message string
	switch p.Kind {
	case KindFriendRequest:
		title, message = "New Friend Request", sender+" sent you a friend request."
	case KindFriendRequestAccepted:
		title, message = "Friend Request Accepted", sender+" accepted your friend request."
	case KindGroupInvitation:
		title, message = "Group Invitation", sender+" invited you to join "+group+"."
	case KindGroupInvitationAccepted:
		title, message = "Invitation Accepted", sender+" joined "+group+"."
	case KindGroupPost:
		title, message = "New Group Post", sender+" posted in "+group+"."
	case KindFriendPost:
		title, message = "New Post", sender+" shared a new post."
	case KindDirectPost:
		title, message = "New Direct Post", sender+" sent you a post."
	case KindTest:
		title, message = "Test Notification", "Push notifications are working."
	default:
		title, message = "New Notification", "You have a new notification."
	}

	if !routable {
		return prompt.Prompt{Title: title, Message: message, Actions: []prompt.Action{prompt.ActionOK}}
	}
	return prompt.Prompt{
		Title:   title,
		Message: message,
		Actions: []prompt.Action{prompt.ActionView, prompt.ActionDismiss},
	}
}
