// Package backend is a client for the push token endpoint of the Friendlines
// API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/provider/resilience"
	"github.com/friendlines/friendlines/internal/registration"
)

const (
	// ProviderName identifies the API in the provider registry.
	ProviderName = "friendlines-api"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 4 << 10
)

// ErrNoAccessToken is returned when no session is available to authorize the
// request. It is not retryable.
var ErrNoAccessToken = errors.New("no access token for backend request")

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the API client.
type ClientConfig struct {
	// BaseURL is the API base URL (required).
	BaseURL string

	// Sessions supplies the bearer token.
	Sessions registration.SessionSource

	// HTTPClient overrides the resilient client.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	Logger zerolog.Logger
}

// Client registers push tokens with the Friendlines API.
type Client struct {
	baseURL    string
	sessions   registration.SessionSource
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates an API client. The resilient client it builds does not
// retry; the registrar owns the retry policy.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.MaxRetries = 0
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		sessions:   cfg.Sessions,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

type registerBody struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
	DeviceID string `json:"deviceId,omitempty"`
}

type registerResponse struct {
	Registered bool `json:"registered"`
}

// RegisterPushToken implements registration.Backend.
func (c *Client) RegisterPushToken(ctx context.Context, req registration.RegisterRequest) (bool, error) {
	sess, ok := c.sessions.Current(ctx)
	if !ok {
		return false, permanent{ErrNoAccessToken}
	}

	body, err := json.Marshal(registerBody{
		UserID:   req.UserID,
		Token:    req.Token.String(),
		Platform: req.Platform,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		return false, permanent{fmt.Errorf("marshaling request: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/users/%s/push-token", c.baseURL, url.PathEscape(req.UserID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, permanent{fmt.Errorf("creating request: %w", err)}
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	httpReq.Header.Set("X-Request-ID", requestID)

	c.logger.Debug().
		Str("request_id", requestID).
		Str("user_id", req.UserID).
		Str("token_suffix", req.Token.Last4()).
		Msg("registering push token")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, newStatusError(resp)
	}

	var out registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decoding response: %w", err)
	}
	return out.Registered, nil
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	StatusCode int
	Title      string
	Detail     string
}

func newStatusError(resp *http.Response) *StatusError {
	e := &StatusError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return e
	}

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &problem) == nil {
		e.Title = problem.Title
		e.Detail = problem.Detail
	}
	return e
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Temporary reports whether the request may succeed if retried. Server
// errors, timeouts and rate limiting are temporary; other client errors are
// not.
func (e *StatusError) Temporary() bool {
	switch {
	case e.StatusCode >= 500:
		return true
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// permanent marks an error as not retryable.
type permanent struct {
	err error
}

func (p permanent) Error() string   { return p.err.Error() }
func (p permanent) Unwrap() error   { return p.err }
func (p permanent) Temporary() bool { return false }
