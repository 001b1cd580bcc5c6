package registration

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/pushtoken"
	"github.com/friendlines/friendlines/internal/retry"
)

// AcquirerConfig configures an Acquirer.
type AcquirerConfig struct {
	Provider  Provider
	ProjectID string

	// Format is the token envelope. Zero value means pushtoken.DefaultFormat.
	Format pushtoken.Format

	// Policy defaults to retry.TokenAcquisitionPolicy.
	Policy retry.Policy

	// Timer replaces the wall clock between attempts.
	Timer backoff.Timer

	Logger zerolog.Logger
}

// Acquirer requests a push token from the provider and validates it.
type Acquirer struct {
	provider  Provider
	projectID string
	format    pushtoken.Format
	policy    retry.Policy
	timer     backoff.Timer
	logger    zerolog.Logger
}

// NewAcquirer creates an Acquirer.
func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	if cfg.Format == (pushtoken.Format{}) {
		cfg.Format = pushtoken.DefaultFormat
	}
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = retry.TokenAcquisitionPolicy
	}
	return &Acquirer{
		provider:  cfg.Provider,
		projectID: cfg.ProjectID,
		format:    cfg.Format,
		policy:    cfg.Policy,
		timer:     cfg.Timer,
		logger:    cfg.Logger,
	}
}

// Acquire returns a well-formed token. A missing project ID fails with
// KindConfiguration before the provider is called. A malformed or failed
// response is retried once; a second failure is KindAcquisition.
func (a *Acquirer) Acquire(ctx context.Context) (pushtoken.Token, error) {
	const op = "acquire"

	if a.projectID == "" {
		return "", newError(KindConfiguration, op, errMissingProjectID)
	}

	var token pushtoken.Token
	err := retry.Do(ctx, a.policy, func(ctx context.Context, attempt int) error {
		raw, err := a.provider.PushToken(ctx, a.projectID)
		if err != nil {
			return err
		}
		if !a.format.Valid(raw) {
			return errMalformedToken
		}
		token = pushtoken.Token(raw)
		return nil
	}, retry.WithTimer(a.timer), retry.WithNotify(func(attempt int, err error, next time.Duration) {
		a.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Msg("push token request failed, retrying")
	}))
	if err != nil {
		return "", newError(KindAcquisition, op, err)
	}

	a.logger.Debug().Str("token_suffix", token.Last4()).Msg("push token acquired")
	return token, nil
}
