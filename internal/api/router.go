// Package api provides the local ops HTTP server of the push agent.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/api/handler"
	"github.com/friendlines/friendlines/internal/api/middleware"
	"github.com/friendlines/friendlines/internal/provider/resilience"
	"github.com/friendlines/friendlines/internal/registration"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Registry  *resilience.Registry

	Coordinator handler.Coordinator
	Sessions    registration.SessionSource
	Dispatcher  handler.Dispatcher
}

// NewRouter creates the ops router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	var state func() string
	if cfg.Coordinator != nil {
		state = func() string { return cfg.Coordinator.State().String() }
	}
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, state)
	pushHandler := handler.NewPushHandler(cfg.Coordinator, cfg.Sessions, cfg.Dispatcher, cfg.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/push", func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.With(middleware.RateLimit(middleware.StandardRateLimit)).Get("/token", pushHandler.GetToken)
			r.With(middleware.RateLimit(middleware.RegisterRateLimit)).Post("/register", pushHandler.Register)
			r.With(middleware.RateLimit(middleware.StandardRateLimit)).Post("/events", pushHandler.InjectEvent)
		})
	})

	return r
}
