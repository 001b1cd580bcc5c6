package registration

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/pushtoken"
	"github.com/friendlines/friendlines/internal/retry"
)

// RegistrarConfig configures a Registrar.
type RegistrarConfig struct {
	Backend Backend

	// Format is the token envelope. Zero value means pushtoken.DefaultFormat.
	Format pushtoken.Format

	// Policy defaults to retry.BackendRegistrationPolicy.
	Policy retry.Policy

	Timer    backoff.Timer
	Platform string
	DeviceID string
	Logger   zerolog.Logger
	Metrics  *Metrics
}

// Registrar associates a token with a user on the backend.
type Registrar struct {
	backend  Backend
	format   pushtoken.Format
	policy   retry.Policy
	timer    backoff.Timer
	platform string
	deviceID string
	logger   zerolog.Logger
	metrics  *Metrics
}

// NewRegistrar creates a Registrar.
func NewRegistrar(cfg RegistrarConfig) *Registrar {
	if cfg.Format == (pushtoken.Format{}) {
		cfg.Format = pushtoken.DefaultFormat
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = retry.BackendRegistrationPolicy
	}
	return &Registrar{
		backend:  cfg.Backend,
		format:   cfg.Format,
		policy:   cfg.Policy,
		timer:    cfg.Timer,
		platform: cfg.Platform,
		deviceID: cfg.DeviceID,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// temporary is implemented by transport errors that may succeed on retry.
type temporary interface {
	Temporary() bool
}

// Register sends the token for userID and returns the backend's
// acknowledgement. A malformed token fails with KindInvalidToken without a
// network call. Exhausted attempts fail with KindBackend.
func (r *Registrar) Register(ctx context.Context, userID string, token pushtoken.Token) (bool, error) {
	const op = "register"

	if !r.format.Valid(string(token)) {
		return false, newError(KindInvalidToken, op, errMalformedToken)
	}
	if userID == "" {
		return false, newError(KindNoSession, op, errors.New("user id is empty"))
	}

	req := RegisterRequest{
		UserID:   userID,
		Token:    token,
		Platform: r.platform,
		DeviceID: r.deviceID,
	}

	var registered bool
	err := retry.Do(ctx, r.policy, func(ctx context.Context, attempt int) error {
		ok, err := r.backend.RegisterPushToken(ctx, req)
		r.metrics.recordBackendAttempt(ctx, err)
		if err != nil {
			var t temporary
			if errors.As(err, &t) && !t.Temporary() {
				return retry.Permanent(err)
			}
			return err
		}
		registered = ok
		return nil
	}, retry.WithTimer(r.timer), retry.WithNotify(func(attempt int, err error, next time.Duration) {
		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("retry_in", next).
			Msg("push token registration failed, retrying")
	}))
	if err != nil {
		return false, newError(KindBackend, op, err)
	}

	r.logger.Info().
		Str("user_id", userID).
		Str("token_suffix", token.Last4()).
		Bool("registered", registered).
		Msg("push token registered with backend")
	return registered, nil
}
