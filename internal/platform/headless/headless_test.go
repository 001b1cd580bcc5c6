package headless_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/notification"
	"github.com/friendlines/friendlines/internal/platform/headless"
	"github.com/friendlines/friendlines/internal/prompt"
	"github.com/friendlines/friendlines/internal/registration"
	"github.com/friendlines/friendlines/internal/session"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) PushToken(context.Context, string) (string, error) {
	return s.token, s.err
}

func TestProvider_Permission(t *testing.T) {
	ctx := context.Background()

	granting := headless.NewProvider(headless.ProviderConfig{AutoGrant: true, Logger: zerolog.Nop()})
	status, err := granting.PermissionStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, registration.PermissionUndetermined, status)

	status, err = granting.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, registration.PermissionGranted, status)

	denying := headless.NewProvider(headless.ProviderConfig{Logger: zerolog.Nop()})
	status, err = denying.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, registration.PermissionDenied, status)
}

func TestProvider_PushToken(t *testing.T) {
	p := headless.NewProvider(headless.ProviderConfig{
		Tokens: staticTokens{token: "ExponentPushToken[abc]"},
		Logger: zerolog.Nop(),
	})
	token, err := p.PushToken(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[abc]", token)

	_, err = headless.NewProvider(headless.ProviderConfig{Logger: zerolog.Nop()}).PushToken(context.Background(), "project-1")
	require.ErrorIs(t, err, headless.ErrNoTokenSource)
}

func TestProvider_WithCoordinator(t *testing.T) {
	provider := headless.NewProvider(headless.ProviderConfig{
		IsDevice:         true,
		SupportsChannels: true,
		AutoGrant:        true,
		Tokens:           staticTokens{token: "ExponentPushToken[abc123]"},
		Logger:           zerolog.Nop(),
	})
	sessions := session.NewStore()
	sessions.Set(session.New("user-42", "access-token"))
	backend := registration.NewMemoryBackend()

	c := registration.NewCoordinator(registration.Config{
		Provider:  provider,
		Backend:   backend,
		Sessions:  sessions,
		Presenter: headless.NewPresenter(prompt.ActionContinue, zerolog.Nop()),
		ProjectID: "project-1",
		Logger:    zerolog.Nop(),
	})

	result, err := c.Register(context.Background(), "user-42")

	require.NoError(t, err)
	assert.True(t, result.Registered)
	assert.Len(t, provider.Channels(), len(registration.DefaultChannels()))
}

func TestProvider_TokenSourceError(t *testing.T) {
	p := headless.NewProvider(headless.ProviderConfig{
		Tokens: staticTokens{err: errors.New("exchange failed")},
		Logger: zerolog.Nop(),
	})

	_, err := p.PushToken(context.Background(), "project-1")
	assert.EqualError(t, err, "exchange failed")
}

func TestPresenter_Present(t *testing.T) {
	var buf bytes.Buffer
	p := headless.NewPresenter(prompt.ActionView, zerolog.New(&buf))

	action, err := p.Present(context.Background(), prompt.Prompt{
		Title:   "New Post",
		Actions: []prompt.Action{prompt.ActionView, prompt.ActionDismiss},
	})
	require.NoError(t, err)
	assert.Equal(t, prompt.ActionView, action)

	action, err = p.Present(context.Background(), prompt.Prompt{
		Title:   "Test Notification",
		Actions: []prompt.Action{prompt.ActionOK},
	})
	require.NoError(t, err)
	assert.Equal(t, prompt.ActionOK, action)
	assert.Contains(t, buf.String(), `"title":"New Post"`)
}

func TestNavigator_LogsNavigation(t *testing.T) {
	var buf bytes.Buffer
	binding := &notification.Binding{}
	binding.Set(headless.NewNavigator(zerolog.New(&buf)))
	r := notification.NewRouter(binding, nil, zerolog.Nop())

	ok := r.OnResponse(context.Background(), notification.Payload{
		Kind:   notification.KindFriendPost,
		PostID: "p-1",
		UserID: "u-1",
	})

	assert.True(t, ok)
	assert.Contains(t, buf.String(), `"screen":"post"`)
	assert.Contains(t, buf.String(), `"post_id":"p-1"`)
}
