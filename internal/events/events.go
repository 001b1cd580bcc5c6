// Package events carries inbound notification and token events to the
// router and the registration coordinator.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/notification"
)

// Type is the kind of event.
type Type string

const (
	// TypeReceived is a notification delivered while the app is in the foreground.
	TypeReceived Type = "received"

	// TypeResponse is the user tapping a notification.
	TypeResponse Type = "response"

	// TypeTokenRotated is the provider issuing a new push token.
	TypeTokenRotated Type = "token_rotated"
)

var (
	ErrUnknownType  = errors.New("unknown event type")
	ErrMissingToken = errors.New("token_rotated event has no token")
)

// Event is an inbound event.
type Event struct {
	Type    Type
	Payload notification.Payload
	Token   string
}

type wireEvent struct {
	Type  Type            `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Token string          `json:"token,omitempty"`
}

// Decode parses an event of the form
// {"type": "...", "data": {...}, "token": "..."}.
func Decode(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}

	ev := Event{Type: w.Type, Token: w.Token}
	switch w.Type {
	case TypeReceived, TypeResponse:
		if len(w.Data) == 0 {
			return Event{}, fmt.Errorf("decoding %s event: %w", w.Type, notification.ErrMalformedPayload)
		}
		p, err := notification.ParsePayload(w.Data)
		if err != nil {
			return Event{}, fmt.Errorf("decoding %s event: %w", w.Type, err)
		}
		ev.Payload = p
	case TypeTokenRotated:
		if w.Token == "" {
			return Event{}, ErrMissingToken
		}
	}
	return ev, nil
}

// Router handles notification events.
type Router interface {
	OnForeground(ctx context.Context, p notification.Payload) bool
	OnResponse(ctx context.Context, p notification.Payload) bool
}

// TokenRotator handles token rotation.
type TokenRotator interface {
	HandleTokenRotation(ctx context.Context, token string) error
}

// Dispatcher routes events to their handlers.
type Dispatcher struct {
	router  Router
	rotator TokenRotator
	logger  zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(router Router, rotator TokenRotator, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		router:  router,
		rotator: rotator,
		logger:  logger,
	}
}

// Dispatch handles ev. It returns ErrUnknownType for unrecognized events and
// the rotator's error for failed token rotations. Notification events never
// fail.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case TypeReceived:
		navigated := d.router.OnForeground(ctx, ev.Payload)
		d.logger.Debug().Str("kind", string(ev.Payload.Kind)).Bool("navigated", navigated).Msg("foreground notification handled")
		return nil
	case TypeResponse:
		navigated := d.router.OnResponse(ctx, ev.Payload)
		d.logger.Debug().Str("kind", string(ev.Payload.Kind)).Bool("navigated", navigated).Msg("notification response handled")
		return nil
	case TypeTokenRotated:
		return d.rotator.HandleTokenRotation(ctx, ev.Token)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, ev.Type)
	}
}
