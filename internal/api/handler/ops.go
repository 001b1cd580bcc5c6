// Package handler provides HTTP handlers for the agent ops server.
package handler

import (
	"net/http"
	"time"

	"github.com/friendlines/friendlines/internal/api/models"
	"github.com/friendlines/friendlines/internal/api/response"
	"github.com/friendlines/friendlines/internal/provider/resilience"
)

// OpsHandler serves liveness, readiness and status.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	state     func() string
}

// NewOpsHandler creates an OpsHandler. registry and state may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, state func() string) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		state:     state,
	}
}

// HealthCheck handles GET /v1/ops/health.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]string{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	})
}

// ReadinessCheck handles GET /v1/ops/ready. The agent is not ready while
// any upstream breaker is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	for _, up := range h.upstreams() {
		if up.IsUnhealthy() {
			if health.Details == nil {
				health.Details = make(map[string]string)
			}
			health.Status = models.HealthStatusFail
			health.Details[up.Name] = "circuit open"
		}
	}

	status := http.StatusOK
	if health.Status == models.HealthStatusFail {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Upstreams: []models.UpstreamStatus{},
	}
	if h.state != nil {
		status.Registration = h.state()
	}

	for _, up := range h.upstreams() {
		us := models.UpstreamStatus{
			Name:          up.Name,
			Status:        healthStatus(up),
			CircuitState:  up.CircuitState.String(),
			LastSuccessAt: models.TimestampPtr(up.LastSuccessAt),
			LastFailureAt: models.TimestampPtr(up.LastFailureAt),
			LastError:     up.LastError,
		}
		switch {
		case us.Status == models.HealthStatusFail:
			status.Status = models.HealthStatusFail
		case us.Status == models.HealthStatusDegraded && status.Status == models.HealthStatusOK:
			status.Status = models.HealthStatusDegraded
		}
		status.Upstreams = append(status.Upstreams, us)
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) upstreams() []*resilience.Health {
	if h.registry == nil {
		return nil
	}
	return h.registry.All()
}

func healthStatus(h *resilience.Health) models.HealthStatus {
	switch {
	case h.IsUnhealthy():
		return models.HealthStatusFail
	case h.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}
