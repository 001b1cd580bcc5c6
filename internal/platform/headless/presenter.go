package headless

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/prompt"
)

// Presenter logs prompts and answers them with a fixed action when the
// prompt offers it, or with the prompt's default.
type Presenter struct {
	answer prompt.Action
	logger zerolog.Logger
}

// NewPresenter creates a Presenter that prefers answer.
func NewPresenter(answer prompt.Action, logger zerolog.Logger) *Presenter {
	return &Presenter{answer: answer, logger: logger}
}

// Present implements prompt.Presenter.
func (p *Presenter) Present(_ context.Context, pr prompt.Prompt) (prompt.Action, error) {
	action := pr.Default()
	if p.answer != "" && pr.Offers(p.answer) {
		action = p.answer
	}

	p.logger.Info().
		Str("title", pr.Title).
		Str("message", pr.Message).
		Str("action", string(action)).
		Msg("prompt")
	return action, nil
}
