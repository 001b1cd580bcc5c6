package registration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Channel IDs.
const (
	ChannelDefault          = "default"
	ChannelFriendRequests   = "friend_requests"
	ChannelGroupInvitations = "group_invitations"
	ChannelGroupPosts       = "group_posts"
	ChannelFriendPosts      = "friend_posts"
	ChannelDirectPosts      = "direct_posts"
)

const brandLightColor = "#FF231F7C"

var defaultVibration = []int{0, 250, 250, 250}

// DefaultChannels returns the channels every installation declares.
func DefaultChannels() []Channel {
	return []Channel{
		{ID: ChannelDefault, Name: "Default", Importance: ImportanceMax},
		{ID: ChannelFriendRequests, Name: "Friend Requests", Importance: ImportanceHigh},
		{ID: ChannelGroupInvitations, Name: "Group Invitations", Importance: ImportanceHigh},
		{ID: ChannelGroupPosts, Name: "Group Posts", Importance: ImportanceDefault},
		{ID: ChannelFriendPosts, Name: "Friend Posts", Importance: ImportanceDefault},
		{ID: ChannelDirectPosts, Name: "Direct Posts", Importance: ImportanceHigh},
	}
}

// ChannelConfigurator upserts delivery channels on platforms that have them.
type ChannelConfigurator struct {
	provider Provider
	channels []Channel
	logger   zerolog.Logger
}

// NewChannelConfigurator creates a configurator. A nil channels slice means
// DefaultChannels.
func NewChannelConfigurator(provider Provider, channels []Channel, logger zerolog.Logger) *ChannelConfigurator {
	if channels == nil {
		channels = DefaultChannels()
	}
	return &ChannelConfigurator{
		provider: provider,
		channels: channels,
		logger:   logger,
	}
}

// Ensure declares every channel. It is a no-op on platforms without channels
// and safe to call repeatedly.
func (c *ChannelConfigurator) Ensure(ctx context.Context) error {
	if !c.provider.SupportsChannels() {
		return nil
	}

	for _, ch := range c.channels {
		if ch.VibrationPattern == nil {
			ch.VibrationPattern = defaultVibration
		}
		if ch.LightColor == "" {
			ch.LightColor = brandLightColor
		}
		if err := c.provider.SetChannel(ctx, ch); err != nil {
			return fmt.Errorf("setting channel %s: %w", ch.ID, err)
		}
	}

	c.logger.Debug().Int("channels", len(c.channels)).Msg("notification channels configured")
	return nil
}
