package registration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/friendlines/friendlines/internal/prompt"
	"github.com/friendlines/friendlines/internal/pushtoken"
)

var unsupportedDevicePrompt = prompt.Prompt{
	Title:   "Physical Device Required",
	Message: KindUnsupportedDevice.Message(),
	Actions: []prompt.Action{prompt.ActionOK},
}

// Config configures a Coordinator.
type Config struct {
	Provider  Provider
	Backend   Backend
	Sessions  SessionSource
	Presenter prompt.Presenter

	ProjectID string
	Format    pushtoken.Format
	Platform  string
	DeviceID  string

	// Channels overrides DefaultChannels when non-nil.
	Channels []Channel

	// Timer replaces the wall clock between retry attempts.
	Timer backoff.Timer

	Logger  zerolog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Coordinator runs the registration pipeline and owns the cached token.
type Coordinator struct {
	sessions  SessionSource
	provider  Provider
	presenter prompt.Presenter
	channels  *ChannelConfigurator
	gate      *PermissionGate
	acquirer  *Acquirer
	registrar *Registrar
	logger    zerolog.Logger
	metrics   *Metrics
	tracer    trace.Tracer

	mu           sync.Mutex
	state        State
	token        pushtoken.Token
	lastIdentity string

	// resets and rotations count Reset and HandleTokenRotation calls so a
	// flow can tell whether the cache changed under it.
	resets    uint64
	rotations uint64
}

// flowMark is the cache generation observed when a flow started.
type flowMark struct {
	resets    uint64
	rotations uint64
}

// NewCoordinator creates a Coordinator in the Idle state.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer(instrumentationName)
	}
	return &Coordinator{
		sessions:  cfg.Sessions,
		provider:  cfg.Provider,
		presenter: cfg.Presenter,
		channels:  NewChannelConfigurator(cfg.Provider, cfg.Channels, cfg.Logger),
		gate:      NewPermissionGate(cfg.Provider, cfg.Presenter, cfg.Logger),
		acquirer: NewAcquirer(AcquirerConfig{
			Provider:  cfg.Provider,
			ProjectID: cfg.ProjectID,
			Format:    cfg.Format,
			Timer:     cfg.Timer,
			Logger:    cfg.Logger,
		}),
		registrar: NewRegistrar(RegistrarConfig{
			Backend:  cfg.Backend,
			Format:   cfg.Format,
			Timer:    cfg.Timer,
			Platform: cfg.Platform,
			DeviceID: cfg.DeviceID,
			Logger:   cfg.Logger,
			Metrics:  cfg.Metrics,
		}),
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		state:   StateIdle,
	}
}

// Token returns the cached push token.
func (c *Coordinator) Token() pushtoken.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// State returns the current flow state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reset clears the cached token and the last registered identity.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.lastIdentity = ""
	c.resets++
}

// Register obtains a push token and registers it for identity.
//
// When a flow is already running, Register returns the cached token with
// Skipped set and does nothing else. A backend failure is not an error: the
// token is cached and the failure is reported in Result.BackendErr.
func (c *Coordinator) Register(ctx context.Context, identity string) (Result, error) {
	c.mu.Lock()
	if c.state == StateInProgress {
		token := c.token
		c.mu.Unlock()
		c.logger.Debug().Msg("registration already in progress, skipping")
		return Result{Token: token, Skipped: true}, nil
	}
	c.state = StateInProgress
	mark := flowMark{resets: c.resets, rotations: c.rotations}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
	}()

	ctx, span := c.tracer.Start(ctx, "push.register")
	defer span.End()

	start := time.Now()
	result, err := c.run(ctx, identity, mark)

	outcome := "registered"
	switch {
	case err != nil:
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	case result.BackendErr != nil:
		outcome = "backend_failed"
		span.RecordError(result.BackendErr)
	}
	span.SetAttributes(attribute.String("push.registration.outcome", outcome))
	c.metrics.recordFlow(ctx, outcome, time.Since(start))

	return result, err
}

func (c *Coordinator) run(ctx context.Context, identity string, mark flowMark) (Result, error) {
	const op = "coordinate"

	if identity == "" {
		return Result{}, newError(KindNoSession, op, errors.New("identity is empty"))
	}
	if _, ok := c.sessions.Current(ctx); !ok {
		return Result{}, newError(KindNoSession, op, errors.New("no authenticated session"))
	}

	log := c.logger.With().Str("user_id", identity).Logger()

	if !c.provider.IsDevice() {
		c.present(ctx, unsupportedDevicePrompt)
		return Result{}, newError(KindUnsupportedDevice, op, errors.New("host cannot receive push notifications"))
	}

	if err := c.step(ctx, "push.channels", c.channels.Ensure); err != nil {
		log.Warn().Err(err).Msg("failed to configure notification channels")
	}

	var status PermissionStatus
	err := c.step(ctx, "push.permission", func(ctx context.Context) error {
		var err error
		status, err = c.gate.Ensure(ctx)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve notification permission")
		c.presentFailure(ctx, KindPermissionUnavailable)
		return Result{}, newError(KindPermissionUnavailable, op, err)
	}
	if !status.Granted() {
		return Result{}, newError(KindPermissionDenied, op, errors.New("notification permission not granted"))
	}

	var token pushtoken.Token
	err = c.step(ctx, "push.acquire", func(ctx context.Context) error {
		var err error
		token, err = c.acquirer.Acquire(ctx)
		return err
	})
	if err != nil {
		log.Error().Err(err).Str("kind", KindOf(err).String()).Msg("failed to acquire push token")
		c.presentFailure(ctx, KindOf(err))
		return Result{}, err
	}

	result := Result{Token: token}
	err = c.step(ctx, "push.backend", func(ctx context.Context) error {
		var err error
		result.Registered, err = c.registrar.Register(ctx, identity, token)
		return err
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to register push token with backend")
		result.BackendErr = err
	}

	result = c.commit(ctx, identity, mark, result, log)

	log.Info().
		Str("token_suffix", result.Token.Last4()).
		Bool("registered", result.Registered).
		Msg("push registration complete")
	return result, nil
}

// commit caches the flow's token unless the cache changed while the flow
// ran. After a Reset the flow's token and identity are dropped. After a
// rotation the rotated token stays cached and is registered for identity, so
// the backend ends on the newest token.
func (c *Coordinator) commit(ctx context.Context, identity string, mark flowMark, result Result, log zerolog.Logger) Result {
	c.mu.Lock()
	switch {
	case c.resets != mark.resets:
		c.mu.Unlock()
		log.Info().Msg("session reset during registration, discarding push token")
		result.Token = ""
		return result
	case c.rotations != mark.rotations:
		rotated := c.token
		c.lastIdentity = identity
		c.mu.Unlock()

		log.Info().Str("token_suffix", rotated.Last4()).Msg("push token rotated during registration")
		result.Token = rotated
		if _, ok := c.sessions.Current(ctx); !ok {
			return result
		}
		registered, err := c.registrar.Register(ctx, identity, rotated)
		result.Registered = registered
		result.BackendErr = err
		if err != nil {
			log.Error().Err(err).Msg("failed to register rotated push token with backend")
		}
		return result
	default:
		c.token = result.Token
		c.lastIdentity = identity
		c.mu.Unlock()
		return result
	}
}

// HandleTokenRotation replaces the cached token with one issued by the
// provider and pushes it to the backend for the last registered identity.
// Invalid tokens are logged and ignored.
func (c *Coordinator) HandleTokenRotation(ctx context.Context, raw string) error {
	token := pushtoken.Token(raw)
	if !c.acquirer.format.Valid(raw) {
		c.logger.Warn().Str("token_suffix", token.Last4()).Msg("ignoring malformed rotated push token")
		return nil
	}

	c.mu.Lock()
	c.token = token
	c.rotations++
	identity := c.lastIdentity
	c.mu.Unlock()

	if identity == "" {
		c.logger.Info().Str("token_suffix", token.Last4()).Msg("push token rotated before registration")
		return nil
	}
	if _, ok := c.sessions.Current(ctx); !ok {
		c.logger.Info().Msg("push token rotated without a session, not registering")
		return nil
	}

	ctx, span := c.tracer.Start(ctx, "push.rotate")
	defer span.End()

	if _, err := c.registrar.Register(ctx, identity, token); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend")
		c.logger.Error().Err(err).Str("user_id", identity).Msg("failed to register rotated push token")
		return err
	}

	c.logger.Info().Str("user_id", identity).Str("token_suffix", token.Last4()).Msg("rotated push token registered")
	return nil
}

// step runs fn in a child span.
func (c *Coordinator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (c *Coordinator) presentFailure(ctx context.Context, kind Kind) {
	title := "Notifications Unavailable"
	if kind == KindConfiguration {
		title = "Notifications Not Configured"
	}
	c.present(ctx, prompt.Prompt{
		Title:   title,
		Message: kind.Message(),
		Actions: []prompt.Action{prompt.ActionOK},
	})
}

func (c *Coordinator) present(ctx context.Context, p prompt.Prompt) {
	if c.presenter == nil {
		return
	}
	if _, err := c.presenter.Present(ctx, p); err != nil {
		c.logger.Warn().Err(err).Str("title", p.Title).Msg("failed to present prompt")
	}
}
