package registration

import "errors"

// Kind classifies registration failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindPermissionDenied
	KindAcquisition
	KindBackend
	KindUnsupportedDevice
	KindNoSession
	KindInvalidToken
	KindPermissionUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindPermissionDenied:
		return "permission_denied"
	case KindAcquisition:
		return "acquisition"
	case KindBackend:
		return "backend"
	case KindUnsupportedDevice:
		return "unsupported_device"
	case KindNoSession:
		return "no_session"
	case KindInvalidToken:
		return "invalid_token"
	case KindPermissionUnavailable:
		return "permission_unavailable"
	default:
		return "unknown"
	}
}

// NextAction is what the user or caller should do about a failure.
type NextAction string

const (
	NextActionNone             NextAction = "none"
	NextActionRetry            NextAction = "retry"
	NextActionOpenSettings     NextAction = "open_settings"
	NextActionFixConfiguration NextAction = "fix_configuration"
)

// NextAction returns the remedy for the kind.
func (k Kind) NextAction() NextAction {
	switch k {
	case KindConfiguration:
		return NextActionFixConfiguration
	case KindPermissionDenied:
		return NextActionOpenSettings
	case KindAcquisition, KindBackend, KindPermissionUnavailable:
		return NextActionRetry
	default:
		return NextActionNone
	}
}

// Message returns the user-facing text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindConfiguration:
		return "Push notifications are not configured for this build. Set the project ID and try again."
	case KindPermissionDenied:
		return "Notifications are turned off. You can enable them in Settings."
	case KindAcquisition:
		return "We couldn't set up notifications. Please try again."
	case KindBackend:
		return "Notifications are enabled, but we couldn't reach Friendlines. We'll try again later."
	case KindUnsupportedDevice:
		return "Push notifications require a physical device."
	case KindNoSession:
		return "Sign in to enable notifications."
	case KindInvalidToken:
		return "The notification service returned an invalid token."
	case KindPermissionUnavailable:
		return "We couldn't check notification permission. Please try again."
	default:
		return "Something went wrong."
	}
}

// Error is a classified registration failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrAcquisition       = &Error{Kind: KindAcquisition}
	ErrBackend           = &Error{Kind: KindBackend}
	ErrUnsupportedDevice = &Error{Kind: KindUnsupportedDevice}
	ErrNoSession         = &Error{Kind: KindNoSession}
	ErrInvalidToken      = &Error{Kind: KindInvalidToken}

	ErrPermissionUnavailable = &Error{Kind: KindPermissionUnavailable}
)

var (
	errMissingProjectID = errors.New("push project id is not set")
	errMalformedToken   = errors.New("provider returned a malformed push token")
)

func (e *Error) Error() string {
	msg := "registration"
	if e.Op != "" {
		msg += " " + e.Op
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// NextAction returns the remedy for the error.
func (e *Error) NextAction() NextAction {
	return e.Kind.NextAction()
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
