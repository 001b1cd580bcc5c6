package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/friendlines/friendlines/internal/api/models"
)

func TestProblem_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	models.NewRegistrationFailed("req_1", http.StatusForbidden, "permission_denied", "open_settings", "Notifications are turned off.").Write(rec)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req_1", rec.Header().Get("X-Request-Id"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.ProblemTypeRegistration, body["type"])
	assert.Equal(t, "permission_denied", body["kind"])
	assert.Equal(t, "open_settings", body["nextAction"])
	assert.Equal(t, float64(http.StatusForbidden), body["status"])
}

func TestProblem_Constructors(t *testing.T) {
	tests := []struct {
		problem *models.Problem
		status  int
		typ     string
	}{
		{models.NewBadRequest("t", "d"), http.StatusBadRequest, models.ProblemTypeValidation},
		{models.NewUnauthorized("t", "d"), http.StatusUnauthorized, models.ProblemTypeUnauthorized},
		{models.NewForbidden("t", "d"), http.StatusForbidden, models.ProblemTypeForbidden},
		{models.NewNotFound("t", "d"), http.StatusNotFound, models.ProblemTypeNotFound},
		{models.NewUnsupportedMediaType("t", "d"), http.StatusUnsupportedMediaType, models.ProblemTypeUnsupportedMedia},
		{models.NewTooManyRequests("t", "d"), http.StatusTooManyRequests, models.ProblemTypeTooManyRequests},
		{models.NewInternalError("t", "d"), http.StatusInternalServerError, models.ProblemTypeInternal},
		{models.NewServiceUnavailable("t", "d"), http.StatusServiceUnavailable, models.ProblemTypeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.problem.Status)
			assert.Equal(t, tt.typ, tt.problem.Type)
			assert.Equal(t, "d", tt.problem.Detail)
			assert.Equal(t, "t", tt.problem.TraceID)
		})
	}
}

func TestTimestamp_JSON(t *testing.T) {
	ts := models.Timestamp(time.Date(2024, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600)))

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-01T12:00:00Z"`, string(data))

	var back models.Timestamp
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, ts.Time().Equal(back.Time()))

	assert.Nil(t, models.TimestampPtr(nil))
}
