// Package headless implements the platform hooks for hosts without a UI:
// permission is decided by configuration, prompts and navigations are
// logged, and push tokens come from a token source such as the Expo
// exchange.
package headless

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/registration"
)

// ErrNoTokenSource is returned by PushToken when no source is configured.
var ErrNoTokenSource = errors.New("no push token source configured")

// TokenSource issues push tokens for a project.
type TokenSource interface {
	PushToken(ctx context.Context, projectID string) (string, error)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// IsDevice reports whether the host can receive push notifications.
	IsDevice bool

	// SupportsChannels enables channel declarations.
	SupportsChannels bool

	// AutoGrant grants permission when it is requested.
	AutoGrant bool

	Tokens TokenSource
	Logger zerolog.Logger
}

// Provider is a registration.Provider for headless hosts.
type Provider struct {
	cfg ProviderConfig

	mu       sync.Mutex
	status   registration.PermissionStatus
	channels map[string]registration.Channel
}

var _ registration.Provider = (*Provider)(nil)

// NewProvider creates a Provider with undetermined permission.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		cfg:      cfg,
		status:   registration.PermissionUndetermined,
		channels: make(map[string]registration.Channel),
	}
}

// IsDevice implements registration.Provider.
func (p *Provider) IsDevice() bool {
	return p.cfg.IsDevice
}

// SupportsChannels implements registration.Provider.
func (p *Provider) SupportsChannels() bool {
	return p.cfg.SupportsChannels
}

// PermissionStatus implements registration.Provider.
func (p *Provider) PermissionStatus(_ context.Context) (registration.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, nil
}

// RequestPermission implements registration.Provider.
func (p *Provider) RequestPermission(_ context.Context) (registration.PermissionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.AutoGrant {
		p.status = registration.PermissionGranted
	} else {
		p.status = registration.PermissionDenied
	}
	p.cfg.Logger.Info().Str("status", string(p.status)).Msg("notification permission requested")
	return p.status, nil
}

// OpenSettings implements registration.Provider.
func (p *Provider) OpenSettings(_ context.Context) error {
	p.cfg.Logger.Info().Msg("open notification settings requested")
	return nil
}

// SetChannel implements registration.Provider.
func (p *Provider) SetChannel(_ context.Context, ch registration.Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels[ch.ID] = ch
	p.cfg.Logger.Debug().
		Str("channel_id", ch.ID).
		Str("importance", string(ch.Importance)).
		Msg("notification channel set")
	return nil
}

// Channels returns the declared channels in no particular order.
func (p *Provider) Channels() []registration.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]registration.Channel, 0, len(p.channels))
	for _, ch := range p.channels {
		out = append(out, ch)
	}
	return out
}

// PushToken implements registration.Provider.
func (p *Provider) PushToken(ctx context.Context, projectID string) (string, error) {
	if p.cfg.Tokens == nil {
		return "", ErrNoTokenSource
	}
	return p.cfg.Tokens.PushToken(ctx, projectID)
}
