// Package main provides the entrypoint for the Friendlines push agent.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/api"
	"github.com/friendlines/friendlines/internal/api/middleware"
	"github.com/friendlines/friendlines/internal/backend"
	"github.com/friendlines/friendlines/internal/config"
	"github.com/friendlines/friendlines/internal/events"
	"github.com/friendlines/friendlines/internal/notification"
	"github.com/friendlines/friendlines/internal/platform/expo"
	"github.com/friendlines/friendlines/internal/platform/headless"
	"github.com/friendlines/friendlines/internal/prompt"
	"github.com/friendlines/friendlines/internal/provider/resilience"
	"github.com/friendlines/friendlines/internal/registration"
	"github.com/friendlines/friendlines/internal/session"
	"github.com/friendlines/friendlines/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "friendlines-agent"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.Level())

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting Friendlines push agent")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize http metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	pushMetrics, err := registration.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize registration metrics")
		os.Exit(1)
	}

	sessions := session.NewStore()
	seedSession(sessions, cfg.Session, log)

	deviceID := cfg.Push.DeviceID
	if deviceID == "" {
		deviceID = uuid.NewString()
		log.Info().Str("device_id", deviceID).Msg("generated device id")
	}

	registry := resilience.NewRegistry()

	expoClient := expo.NewClient(expo.ClientConfig{
		TokenURL:    cfg.Expo.TokenURL,
		AppID:       cfg.Push.AppID,
		DeviceID:    deviceID,
		DeviceType:  expo.DeviceType(cfg.Push.DeviceType),
		DeviceToken: cfg.Push.DeviceToken,
		Development: cfg.Push.Development,
		Registry:    registry,
		Logger:      log.With().Str("component", "expo").Logger(),
	})

	provider := headless.NewProvider(headless.ProviderConfig{
		IsDevice:         cfg.Push.IsDevice,
		SupportsChannels: cfg.Push.Channels,
		AutoGrant:        cfg.Push.AutoGrant,
		Tokens:           expoClient,
		Logger:           log.With().Str("component", "platform").Logger(),
	})
	presenter := headless.NewPresenter(prompt.ActionContinue, log.With().Str("component", "presenter").Logger())

	apiClient := backend.NewClient(backend.ClientConfig{
		BaseURL:  cfg.API.BaseURL,
		Sessions: sessions,
		Timeout:  cfg.API.Timeout,
		Registry: registry,
		Logger:   log.With().Str("component", "backend").Logger(),
	})

	coordinator := registration.NewCoordinator(registration.Config{
		Provider:  provider,
		Backend:   apiClient,
		Sessions:  sessions,
		Presenter: presenter,
		ProjectID: cfg.Push.ProjectID,
		Format:    cfg.TokenFormat(),
		Platform:  cfg.Push.Platform,
		DeviceID:  deviceID,
		Logger:    log.With().Str("component", "registration").Logger(),
		Metrics:   pushMetrics,
		Tracer:    tp.Tracer,
	})

	var binding notification.Binding
	binding.Set(headless.NewNavigator(log.With().Str("component", "navigator").Logger()))
	defer binding.Clear()

	router := notification.NewRouter(&binding, presenter, log.With().Str("component", "notifications").Logger())
	dispatcher := events.NewDispatcher(router, coordinator, log.With().Str("component", "events").Logger())

	if cfg.PubSub.Subscription != "" {
		source, sourceErr := events.NewPubSubSource(ctx, events.PubSubConfig{
			ProjectID:        cfg.PubSub.ProjectID,
			SubscriptionName: cfg.PubSub.Subscription,
			Dispatcher:       dispatcher,
			Logger:           log.With().Str("component", "pubsub").Logger(),
		})
		if sourceErr != nil {
			log.Fatal().Err(sourceErr).Msg("failed to create pubsub event source")
		}
		defer func() {
			if closeErr := source.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if startErr := source.Start(ctx); startErr != nil && !errors.Is(startErr, context.Canceled) {
				log.Error().Err(startErr).Msg("pubsub event source stopped")
			}
		}()
	}

	if sess, ok := sessions.Current(ctx); ok {
		go registerAtStartup(ctx, coordinator, sess.UserID, log)
	} else {
		log.Info().Msg("no session configured, waiting for a registration request")
	}

	server := &http.Server{
		Addr: cfg.OpsAddr,
		Handler: api.NewRouter(api.RouterConfig{
			Version:     Version,
			BuildTime:   BuildTime,
			Logger:      log,
			Metrics:     httpMetrics,
			Registry:    registry,
			Coordinator: coordinator,
			Sessions:    sessions,
			Dispatcher:  dispatcher,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("ops server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}
	coordinator.Reset()

	log.Info().Msg("agent stopped")
}

// seedSession installs the configured session, if any.
func seedSession(store *session.Store, cfg config.SessionConfig, log zerolog.Logger) {
	if cfg.AccessToken == "" {
		return
	}

	if cfg.UserID != "" {
		store.Set(session.New(cfg.UserID, cfg.AccessToken))
		log.Info().Str("user_id", cfg.UserID).Msg("session loaded")
		return
	}

	sess, err := session.FromAccessToken(cfg.AccessToken)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring configured access token")
		return
	}
	store.Set(sess)
	log.Info().Str("user_id", sess.UserID).Msg("session loaded")
}

func registerAtStartup(ctx context.Context, coordinator *registration.Coordinator, userID string, log zerolog.Logger) {
	result, err := coordinator.Register(ctx, userID)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("kind", registration.KindOf(err).String()).Msg("startup registration failed")
	case result.BackendErr != nil:
		log.Warn().Err(result.BackendErr).Msg("push token acquired but not registered with the API")
	default:
		log.Info().Bool("registered", result.Registered).Msg("startup registration finished")
	}
}
