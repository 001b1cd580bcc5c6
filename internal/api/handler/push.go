package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/api/middleware"
	"github.com/friendlines/friendlines/internal/api/models"
	"github.com/friendlines/friendlines/internal/api/response"
	"github.com/friendlines/friendlines/internal/events"
	"github.com/friendlines/friendlines/internal/pushtoken"
	"github.com/friendlines/friendlines/internal/registration"
)

const maxEventBody = 64 << 10

// Coordinator runs registrations and exposes the cached token.
type Coordinator interface {
	Register(ctx context.Context, identity string) (registration.Result, error)
	Token() pushtoken.Token
	State() registration.State
}

// Dispatcher handles injected events.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev events.Event) error
}

// PushHandler serves the push endpoints.
type PushHandler struct {
	coordinator Coordinator
	sessions    registration.SessionSource
	dispatcher  Dispatcher
	logger      zerolog.Logger
}

// NewPushHandler creates a PushHandler.
func NewPushHandler(coordinator Coordinator, sessions registration.SessionSource, dispatcher Dispatcher, logger zerolog.Logger) *PushHandler {
	return &PushHandler{
		coordinator: coordinator,
		sessions:    sessions,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// GetToken handles GET /v1/push/token.
func (h *PushHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	token := h.coordinator.Token()
	body := models.PushToken{
		Present: !token.IsZero(),
		State:   h.coordinator.State().String(),
	}
	if body.Present {
		body.TokenSuffix = token.Last4()
	}
	response.JSON(w, r, http.StatusOK, body)
}

// Register handles POST /v1/push/register. The body is optional.
func (h *PushHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterPushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "request body must be a JSON object")
		return
	}

	identity := req.UserID
	if sess, ok := h.sessions.Current(r.Context()); ok {
		if identity != "" && identity != sess.UserID {
			response.Forbidden(w, r, "userId does not match the signed-in user")
			return
		}
		identity = sess.UserID
	}

	result, err := h.coordinator.Register(r.Context(), identity)
	if err != nil {
		h.writeRegistrationError(w, r, err)
		return
	}

	body := models.RegisterPushResult{
		Registered: result.Registered,
		Skipped:    result.Skipped,
	}
	if !result.Token.IsZero() {
		body.TokenSuffix = result.Token.Last4()
	}
	if result.BackendErr != nil {
		body.BackendError = registration.KindBackend.Message()
	}

	status := http.StatusOK
	if result.Skipped {
		status = http.StatusAccepted
	}
	response.JSON(w, r, status, body)
}

func (h *PushHandler) writeRegistrationError(w http.ResponseWriter, r *http.Request, err error) {
	kind := registration.KindOf(err)

	var status int
	switch kind {
	case registration.KindNoSession:
		status = http.StatusUnauthorized
	case registration.KindPermissionDenied:
		status = http.StatusForbidden
	case registration.KindUnsupportedDevice:
		status = http.StatusUnprocessableEntity
	case registration.KindConfiguration:
		status = http.StatusServiceUnavailable
	case registration.KindAcquisition, registration.KindBackend, registration.KindInvalidToken, registration.KindPermissionUnavailable:
		status = http.StatusBadGateway
	default:
		h.logger.Error().Err(err).Msg("unclassified registration failure")
		response.InternalError(w, r, "registration failed")
		return
	}

	problem := models.NewRegistrationFailed(
		middleware.GetRequestID(r.Context()),
		status,
		kind.String(),
		string(kind.NextAction()),
		kind.Message(),
	)
	response.Error(w, r, problem)
}

// InjectEvent handles POST /v1/push/events.
func (h *PushHandler) InjectEvent(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		response.BadRequest(w, r, "failed to read request body")
		return
	}

	ev, err := events.Decode(data)
	if err != nil {
		response.BadRequest(w, r, err.Error())
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), ev); err != nil {
		if errors.Is(err, events.ErrUnknownType) {
			response.BadRequest(w, r, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("type", string(ev.Type)).Msg("failed to dispatch injected event")
		problem := models.NewProblem(models.ProblemTypeRegistration, "Event failed", http.StatusBadGateway, middleware.GetRequestID(r.Context()))
		if kind := registration.KindOf(err); kind != registration.KindUnknown {
			problem.Kind = kind.String()
			problem.NextAction = string(kind.NextAction())
		}
		response.Error(w, r, problem.WithDetail("the event could not be handled"))
		return
	}

	response.Accepted(w, r, models.PushEvent{Type: string(ev.Type)})
}
