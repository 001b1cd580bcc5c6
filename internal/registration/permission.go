package registration

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/prompt"
)

var (
	explainPermissionPrompt = prompt.Prompt{
		Title:   "Enable Notifications",
		Message: "Friendlines uses notifications to tell you about friend requests, group invitations and new posts.",
		Actions: []prompt.Action{prompt.ActionContinue, prompt.ActionCancel},
	}

	permissionDeniedPrompt = prompt.Prompt{
		Title:   "Notifications Disabled",
		Message: KindPermissionDenied.Message(),
		Actions: []prompt.Action{prompt.ActionOpenSettings, prompt.ActionCancel},
	}
)

// PermissionGate obtains notification permission, prompting only when it is
// not already granted.
type PermissionGate struct {
	provider  Provider
	presenter prompt.Presenter
	logger    zerolog.Logger
}

// NewPermissionGate creates a permission gate. presenter may be nil, in
// which case the OS prompt is shown without an explanation.
func NewPermissionGate(provider Provider, presenter prompt.Presenter, logger zerolog.Logger) *PermissionGate {
	return &PermissionGate{
		provider:  provider,
		presenter: presenter,
		logger:    logger,
	}
}

// Ensure returns PermissionGranted or PermissionDenied. An error is returned
// only when the provider cannot report or request permission.
func (g *PermissionGate) Ensure(ctx context.Context) (PermissionStatus, error) {
	status, err := g.provider.PermissionStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("reading permission status: %w", err)
	}
	if status.Granted() {
		return PermissionGranted, nil
	}

	if !g.explain(ctx) {
		g.logger.Info().Msg("user declined notification explanation")
		g.offerSettings(ctx)
		return PermissionDenied, nil
	}

	status, err = g.provider.RequestPermission(ctx)
	if err != nil {
		return "", fmt.Errorf("requesting permission: %w", err)
	}
	if status.Granted() {
		return PermissionGranted, nil
	}

	g.logger.Info().Str("status", string(status)).Msg("notification permission denied")
	g.offerSettings(ctx)
	return PermissionDenied, nil
}

// explain shows the app-level dialog that precedes the OS prompt.
func (g *PermissionGate) explain(ctx context.Context) bool {
	if g.presenter == nil {
		return true
	}
	action, err := g.presenter.Present(ctx, explainPermissionPrompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to present permission explanation")
		return true
	}
	return action != prompt.ActionCancel
}

func (g *PermissionGate) offerSettings(ctx context.Context) {
	if g.presenter == nil {
		return
	}
	action, err := g.presenter.Present(ctx, permissionDeniedPrompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to present permission denied prompt")
		return
	}
	if action != prompt.ActionOpenSettings {
		return
	}
	if err := g.provider.OpenSettings(ctx); err != nil {
		g.logger.Warn().Err(err).Msg("failed to open notification settings")
	}
}
