// Package prompt describes user-facing dialogs that the push pipeline asks
// the host UI to show, and the answer the user picked.
package prompt

import (
	"context"
	"slices"
	"sync"
)

// Action is a button offered by a prompt.
type Action string

const (
	ActionOK           Action = "ok"
	ActionView         Action = "view"
	ActionDismiss      Action = "dismiss"
	ActionContinue     Action = "continue"
	ActionCancel       Action = "cancel"
	ActionOpenSettings Action = "open_settings"
)

// Prompt is a dialog with a title, a message and a set of actions.
// The first action is the default.
type Prompt struct {
	Title   string
	Message string
	Actions []Action
}

// Offers reports whether a is one of the prompt's actions.
func (p Prompt) Offers(a Action) bool {
	return slices.Contains(p.Actions, a)
}

// Default returns the first action, or ActionOK when there is none.
func (p Prompt) Default() Action {
	if len(p.Actions) == 0 {
		return ActionOK
	}
	return p.Actions[0]
}

// Presenter shows a prompt and blocks until the user answers.
type Presenter interface {
	Present(ctx context.Context, p Prompt) (Action, error)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, p Prompt) (Action, error)

// Present implements Presenter.
func (f PresenterFunc) Present(ctx context.Context, p Prompt) (Action, error) {
	return f(ctx, p)
}

// Recorder is a Presenter that records every prompt and answers with a fixed
// action when the prompt offers it, or with the prompt's default otherwise.
// It is intended for tests and headless hosts.
type Recorder struct {
	mu      sync.Mutex
	answer  Action
	prompts []Prompt
}

// NewRecorder creates a Recorder that prefers answer.
func NewRecorder(answer Action) *Recorder {
	return &Recorder{answer: answer}
}

// Present implements Presenter.
func (r *Recorder) Present(_ context.Context, p Prompt) (Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, p)
	if p.Offers(r.answer) {
		return r.answer, nil
	}
	return p.Default(), nil
}

// Prompts returns the recorded prompts in order.
func (r *Recorder) Prompts() []Prompt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.prompts)
}
