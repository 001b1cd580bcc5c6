// Package expo exchanges native device push tokens for Expo push tokens.
package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/provider/resilience"
)

const (
	// ProviderName identifies the Expo push service in the provider registry.
	ProviderName = "expo"

	// DefaultTokenURL is the Expo token exchange endpoint.
	DefaultTokenURL = "https://exp.host/--/api/v2/push/getExpoPushToken"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// DeviceType is the native push service that issued the device token.
type DeviceType string

const (
	DeviceTypeFCM  DeviceType = "fcm"
	DeviceTypeAPNs DeviceType = "apns"
)

var (
	ErrMissingDeviceToken = errors.New("device token is required")
	ErrEmptyResponse      = errors.New("expo returned no push token")
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Expo client.
type ClientConfig struct {
	// TokenURL overrides DefaultTokenURL.
	TokenURL string

	// AppID is the application (bundle or package) identifier.
	AppID string

	DeviceID    string
	DeviceType  DeviceType
	DeviceToken string

	// Development selects the APNs sandbox.
	Development bool

	HTTPClient HTTPDoer
	Timeout    time.Duration
	Registry   *resilience.Registry
	Logger     zerolog.Logger
}

// Client is an Expo push token client.
type Client struct {
	tokenURL    string
	appID       string
	deviceID    string
	deviceType  DeviceType
	deviceToken string
	development bool
	httpClient  HTTPDoer
	logger      zerolog.Logger
}

// NewClient creates an Expo client.
func NewClient(cfg ClientConfig) *Client {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	deviceType := cfg.DeviceType
	if deviceType == "" {
		deviceType = DeviceTypeFCM
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
		tokenURL:    tokenURL,
		appID:       cfg.AppID,
		deviceID:    cfg.DeviceID,
		deviceType:  deviceType,
		deviceToken: cfg.DeviceToken,
		development: cfg.Development,
		httpClient:  httpClient,
		logger:      cfg.Logger,
	}
}

type tokenRequest struct {
	Type        DeviceType `json:"type"`
	DeviceID    string     `json:"deviceId,omitempty"`
	Development bool       `json:"development"`
	AppID       string     `json:"appId,omitempty"`
	DeviceToken string     `json:"deviceToken"`
	ProjectID   string     `json:"projectId"`
}

type tokenResponse struct {
	Data struct {
		ExpoPushToken string `json:"expoPushToken"`
	} `json:"data"`
	Errors []APIError `json:"errors"`
}

// APIError is an error entry returned by Expo.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("expo: %s: %s", e.Code, e.Message)
}

// PushToken exchanges the configured device token for an Expo push token.
// The returned token is not validated.
func (c *Client) PushToken(ctx context.Context, projectID string) (string, error) {
	if c.deviceToken == "" {
		return "", ErrMissingDeviceToken
	}

	body, err := json.Marshal(tokenRequest{
		Type:        c.deviceType,
		DeviceID:    c.deviceID,
		Development: c.development,
		AppID:       c.appID,
		DeviceToken: c.deviceToken,
		ProjectID:   projectID,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("type", string(c.deviceType)).
		Str("project_id", projectID).
		Msg("requesting expo push token")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting expo push token: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var out tokenResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("expo returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Errors) > 0 {
		return "", &out.Errors[0]
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("expo returned status %d", resp.StatusCode)
	}
	if out.Data.ExpoPushToken == "" {
		return "", ErrEmptyResponse
	}
	return out.Data.ExpoPushToken, nil
}
