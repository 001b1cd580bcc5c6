package notification

import "sync"

// Handler performs in-app navigation. It is supplied by the host UI.
type Handler interface {
	NavigateToPost(postID, authorID string)
	NavigateToFriendRequests()
	NavigateToFriendsList()
	NavigateToGroupsList()
	NavigateToGroupDetail(groupID string)
	NavigateToUserProfile(userID string)
}

// Binding holds at most one Handler. The zero value is empty and ready to
// use. Rebinding the same handler is harmless.
type Binding struct {
	mu      sync.RWMutex
	handler Handler
}

// Set replaces the bound handler.
func (b *Binding) Set(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Clear unbinds the handler.
func (b *Binding) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = nil
}

// Handler returns the bound handler or nil.
func (b *Binding) Handler() Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handler
}
