package prompt_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/prompt"
)

func TestPrompt_Default(t *testing.T) {
	assert.Equal(t, prompt.ActionOK, prompt.Prompt{}.Default())
	assert.Equal(t, prompt.ActionView, prompt.Prompt{
		Actions: []prompt.Action{prompt.ActionView, prompt.ActionDismiss},
	}.Default())
}

func TestRecorder_AnswersOfferedAction(t *testing.T) {
	rec := prompt.NewRecorder(prompt.ActionDismiss)
	ctx := context.Background()

	got, err := rec.Present(ctx, prompt.Prompt{
		Title:   "New Friend Request",
		Actions: []prompt.Action{prompt.ActionView, prompt.ActionDismiss},
	})
	require.NoError(t, err)
	assert.Equal(t, prompt.ActionDismiss, got)

	got, err = rec.Present(ctx, prompt.Prompt{Title: "Test", Actions: []prompt.Action{prompt.ActionOK}})
	require.NoError(t, err)
	assert.Equal(t, prompt.ActionOK, got, "falls back to the default action")

	prompts := rec.Prompts()
	require.Len(t, prompts, 2)
	assert.Equal(t, "New Friend Request", prompts[0].Title)
}

func TestPresenterFunc(t *testing.T) {
	var seen prompt.Prompt
	p := prompt.PresenterFunc(func(_ context.Context, pr prompt.Prompt) (prompt.Action, error) {
		seen = pr
		return prompt.ActionCancel, nil
	})

	got, err := p.Present(context.Background(), prompt.Prompt{Title: "Enable Notifications"})
	require.NoError(t, err)
	assert.Equal(t, prompt.ActionCancel, got)
	assert.Equal(t, "Enable Notifications", seen.Title)
}
