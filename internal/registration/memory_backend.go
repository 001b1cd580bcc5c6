package registration

import (
	"context"
	"sync"

	"github.com/friendlines/friendlines/internal/pushtoken"
)

// MemoryBackend is an in-memory implementation of Backend.
// This is intended for testing. Production should use the REST client.
type MemoryBackend struct {
	mu       sync.Mutex
	tokens   map[string]pushtoken.Token // keyed by user ID
	calls    []RegisterRequest
	failures int
	err      error
	ack      bool
}

// NewMemoryBackend creates a backend that acknowledges every registration.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		tokens: make(map[string]pushtoken.Token),
		ack:    true,
	}
}

// FailNext makes the next n calls return err.
func (b *MemoryBackend) FailNext(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = n
	b.err = err
}

// SetAcknowledge sets the registered flag returned on success.
func (b *MemoryBackend) SetAcknowledge(ack bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ack = ack
}

// RegisterPushToken implements Backend. Registering the same pair twice
// leaves a single entry.
func (b *MemoryBackend) RegisterPushToken(_ context.Context, req RegisterRequest) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, req)
	if b.failures > 0 {
		b.failures--
		return false, b.err
	}
	if b.ack {
		b.tokens[req.UserID] = req.Token
	}
	return b.ack, nil
}

// Calls returns every request received, including failed ones.
func (b *MemoryBackend) Calls() []RegisterRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RegisterRequest, len(b.calls))
	copy(out, b.calls)
	return out
}

// Registered returns the token stored for userID.
func (b *MemoryBackend) Registered(userID string) (pushtoken.Token, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	token, ok := b.tokens[userID]
	return token, ok
}
