package notification

import "errors"

// Destination is a navigation target.
type Destination int

const (
	DestinationNone Destination = iota
	DestinationPost
	DestinationFriendRequests
	DestinationFriendsList
	DestinationGroupsList
	DestinationGroupDetail
	DestinationUserProfile
)

func (d Destination) String() string {
	switch d {
	case DestinationPost:
		return "post"
	case DestinationFriendRequests:
		return "friend_requests"
	case DestinationFriendsList:
		return "friends_list"
	case DestinationGroupsList:
		return "groups_list"
	case DestinationGroupDetail:
		return "group_detail"
	case DestinationUserProfile:
		return "user_profile"
	default:
		return "none"
	}
}

// ErrMissingIdentifiers is returned when a routable payload lacks the ids its
// destination needs.
var ErrMissingIdentifiers = errors.New("notification is missing identifiers for navigation")

// Resolve returns the destination for p. Test and unknown kinds resolve to
// DestinationNone.
func Resolve(p Payload) (Destination, error) {
	switch p.Kind {
	case KindFriendRequest:
		return DestinationFriendRequests, nil
	case KindFriendRequestAccepted:
		return DestinationFriendsList, nil
	case KindGroupInvitation:
		return DestinationGroupsList, nil
	case KindGroupInvitationAccepted:
		if p.GroupID == "" {
			return DestinationGroupDetail, ErrMissingIdentifiers
		}
		return DestinationGroupDetail, nil
	case KindGroupPost, KindFriendPost, KindDirectPost:
		if p.PostID == "" || p.UserID == "" {
			return DestinationPost, ErrMissingIdentifiers
		}
		return DestinationPost, nil
	default:
		return DestinationNone, nil
	}
}

// navigate calls the handler method for d.
func (d Destination) navigate(h Handler, p Payload) {
	switch d {
	case DestinationPost:
		h.NavigateToPost(p.PostID, p.UserID)
	case DestinationFriendRequests:
		h.NavigateToFriendRequests()
	case DestinationFriendsList:
		h.NavigateToFriendsList()
	case DestinationGroupsList:
		h.NavigateToGroupsList()
	case DestinationGroupDetail:
		h.NavigateToGroupDetail(p.GroupID)
	case DestinationUserProfile:
		h.NavigateToUserProfile(p.UserID)
	}
}
