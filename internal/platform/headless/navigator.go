package headless

import (
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/notification"
)

// Navigator is a notification.Handler that logs each navigation.
type Navigator struct {
	logger zerolog.Logger
}

var _ notification.Handler = (*Navigator)(nil)

// NewNavigator creates a Navigator.
func NewNavigator(logger zerolog.Logger) *Navigator {
	return &Navigator{logger: logger}
}

func (n *Navigator) NavigateToPost(postID, authorID string) {
	n.logger.Info().Str("screen", "post").Str("post_id", postID).Str("author_id", authorID).Msg("navigate")
}

func (n *Navigator) NavigateToFriendRequests() {
	n.logger.Info().Str("screen", "friend_requests").Msg("navigate")
}

func (n *Navigator) NavigateToFriendsList() {
	n.logger.Info().Str("screen", "friends_list").Msg("navigate")
}

func (n *Navigator) NavigateToGroupsList() {
	n.logger.Info().Str("screen", "groups_list").Msg("navigate")
}

func (n *Navigator) NavigateToGroupDetail(groupID string) {
	n.logger.Info().Str("screen", "group_detail").Str("group_id", groupID).Msg("navigate")
}

func (n *Navigator) NavigateToUserProfile(userID string) {
	n.logger.Info().Str("screen", "user_profile").Str("user_id", userID).Msg("navigate")
}
