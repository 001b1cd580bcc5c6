package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, written with Content-Type
// application/problem+json.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// TraceID is the request ID.
	TraceID string `json:"traceId"`

	// Kind and NextAction classify registration failures.
	Kind       string `json:"kind,omitempty"`
	NextAction string `json:"nextAction,omitempty"`
}

// Problem types.
const (
	ProblemTypeValidation       = "https://friendlines.app/problems/validation-error"
	ProblemTypeUnauthorized     = "https://friendlines.app/problems/unauthorized"
	ProblemTypeForbidden        = "https://friendlines.app/problems/forbidden"
	ProblemTypeNotFound         = "https://friendlines.app/problems/not-found"
	ProblemTypeUnsupportedMedia = "https://friendlines.app/problems/unsupported-media-type"
	ProblemTypeRegistration     = "https://friendlines.app/problems/registration-failed"
	ProblemTypeTooManyRequests  = "https://friendlines.app/problems/too-many-requests"
	ProblemTypeInternal         = "https://friendlines.app/problems/internal-error"
	ProblemTypeUnavailable      = "https://friendlines.app/problems/service-unavailable"
)

// NewProblem creates a Problem.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// WithDetail sets the detail message.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// Write writes the Problem to w.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NewBadRequest creates a 400 problem.
func NewBadRequest(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID).WithDetail(detail)
}

// NewUnauthorized creates a 401 problem.
func NewUnauthorized(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID).WithDetail(detail)
}

// NewForbidden creates a 403 problem.
func NewForbidden(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeForbidden, "Forbidden", http.StatusForbidden, traceID).WithDetail(detail)
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID).WithDetail(detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnsupportedMedia, "Unsupported media type", http.StatusUnsupportedMediaType, traceID).WithDetail(detail)
}

// NewRegistrationFailed creates a problem for a failed registration run.
func NewRegistrationFailed(traceID string, status int, kind, nextAction, detail string) *Problem {
	p := NewProblem(ProblemTypeRegistration, "Push registration failed", status, traceID).WithDetail(detail)
	p.Kind = kind
	p.NextAction = nextAction
	return p
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID).WithDetail(detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID).WithDetail(detail)
}

// NewServiceUnavailable creates a 503 problem.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, "Service unavailable", http.StatusServiceUnavailable, traceID).WithDetail(detail)
}
