// Package registration obtains a push token for this installation and
// reconciles it with the Friendlines API.
//
// The Coordinator sequences the pipeline: device check, channel setup,
// permission, token acquisition, backend registration. At most one flow runs
// at a time; a second caller is dropped, not queued.
package registration

import (
	"context"

	"github.com/friendlines/friendlines/internal/pushtoken"
	"github.com/friendlines/friendlines/internal/session"
)

// PermissionStatus is the OS notification permission state.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// Granted reports whether notifications may be delivered.
func (s PermissionStatus) Granted() bool {
	return s == PermissionGranted
}

// Importance is the delivery tier of a channel.
type Importance string

const (
	ImportanceMax     Importance = "max"
	ImportanceHigh    Importance = "high"
	ImportanceDefault Importance = "default"
	ImportanceLow     Importance = "low"
)

// Channel is a platform delivery channel grouping notification kinds.
type Channel struct {
	ID         string
	Name       string
	Importance Importance

	// VibrationPattern is in milliseconds, alternating pause and vibrate.
	VibrationPattern []int

	// LightColor is an ARGB hex string.
	LightColor string
}

// Provider is the platform push notification SDK.
type Provider interface {
	// IsDevice reports whether the host can receive push notifications.
	IsDevice() bool

	// SupportsChannels reports whether the platform has delivery channels.
	SupportsChannels() bool

	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)

	// OpenSettings opens the system notification settings for the app.
	OpenSettings(ctx context.Context) error

	// SetChannel creates or updates a channel.
	SetChannel(ctx context.Context, ch Channel) error

	// PushToken requests a push token for projectID. The result is not
	// validated by the provider.
	PushToken(ctx context.Context, projectID string) (string, error)
}

// SessionSource supplies the current authenticated session.
type SessionSource interface {
	Current(ctx context.Context) (session.Session, bool)
}

// RegisterRequest associates a push token with a user on the backend.
type RegisterRequest struct {
	UserID   string
	Token    pushtoken.Token
	Platform string
	DeviceID string
}

// Backend is the token registration endpoint of the Friendlines API.
// Registering the same pair twice is safe.
type Backend interface {
	RegisterPushToken(ctx context.Context, req RegisterRequest) (bool, error)
}

// State is the coordinator's flow state.
type State int

const (
	StateIdle State = iota
	StateInProgress
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

// Result is the outcome of a registration flow.
type Result struct {
	// Token is the cached push token. It is empty when no flow has succeeded.
	Token pushtoken.Token

	// Registered is the backend's acknowledgement.
	Registered bool

	// Skipped is set when another flow was already in progress.
	Skipped bool

	// BackendErr reports a failed backend registration. The token is still
	// cached and delivered notifications still arrive.
	BackendErr error
}
