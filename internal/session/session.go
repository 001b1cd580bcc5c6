// Package session holds the signed-in user's identity and API access token.
//
// The token is issued by the Friendlines API; this package never verifies its
// signature, it only reads the subject and expiry so the push pipeline can
// tell whether an authenticated session exists.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
	ErrMissingUserID      = errors.New("access token carries no user id")
)

// Session is an authenticated user session.
type Session struct {
	UserID      string
	AccessToken string

	// ExpiresAt is zero for opaque tokens without a known expiry.
	ExpiresAt time.Time
}

// Claims mirrors the access token claims issued by the API.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is preferred over the subject when present.
	UserID string `json:"uid"`
}

// New creates a session from an identity and an opaque access token.
func New(userID, accessToken string) Session {
	return Session{UserID: userID, AccessToken: accessToken}
}

// FromAccessToken builds a session from a JWT access token.
func FromAccessToken(accessToken string) (Session, error) {
	parser := jwt.NewParser()

	var claims Claims
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return Session{}, ErrMissingUserID
	}

	s := Session{
		UserID:      userID,
		AccessToken: accessToken,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	if s.Expired(time.Now()) {
		return Session{}, ErrAccessTokenExpired
	}
	return s, nil
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticated reports whether both identity and token are present and the
// token has not expired.
func (s Session) Authenticated(now time.Time) bool {
	return s.UserID != "" && s.AccessToken != "" && !s.Expired(now)
}

// Store keeps the current session for the process.
type Store struct {
	mu      sync.RWMutex
	current *Session
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Set replaces the current session.
func (s *Store) Set(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &sess
}

// Clear removes the current session (logout).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Current returns the session if one is set and still authenticated.
func (s *Store) Current(_ context.Context) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil || !s.current.Authenticated(s.now()) {
		return Session{}, false
	}
	return *s.current, true
}
