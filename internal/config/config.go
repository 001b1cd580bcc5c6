// Package config loads the agent configuration from the environment, after
// reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/friendlines/friendlines/internal/pushtoken"
)

var (
	ErrParsingConfig     = errors.New("failed to parse configuration")
	ErrInvalidAPIBaseURL = errors.New("API_BASE_URL must be an absolute URL")
	ErrPubSubProject     = errors.New("PUBSUB_PROJECT_ID is required when PUBSUB_SUBSCRIPTION is set")
)

// Config is the agent configuration.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	OpsAddr  string `env:"OPS_ADDR" envDefault:":8081"`

	API       APIConfig
	Push      PushConfig
	Expo      ExpoConfig
	Session   SessionConfig
	PubSub    PubSubConfig
	Telemetry TelemetryConfig
}

// APIConfig configures the Friendlines API client.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
}

// PushConfig configures token acquisition and the headless platform.
type PushConfig struct {
	// ProjectID is the Expo project ID. Registration fails with a
	// configuration error when it is empty.
	ProjectID   string `env:"PUSH_PROJECT_ID"`
	TokenPrefix string `env:"PUSH_TOKEN_PREFIX" envDefault:"ExponentPushToken["`
	TokenSuffix string `env:"PUSH_TOKEN_SUFFIX" envDefault:"]"`

	DeviceToken string `env:"PUSH_DEVICE_TOKEN"`
	DeviceType  string `env:"PUSH_DEVICE_TYPE" envDefault:"fcm"`
	AppID       string `env:"PUSH_APP_ID"`
	DeviceID    string `env:"PUSH_DEVICE_ID"`
	Platform    string `env:"PUSH_PLATFORM" envDefault:"android"`
	Development bool   `env:"PUSH_DEVELOPMENT" envDefault:"false"`

	IsDevice  bool `env:"PUSH_IS_DEVICE" envDefault:"true"`
	AutoGrant bool `env:"PUSH_AUTO_GRANT" envDefault:"true"`
	Channels  bool `env:"PUSH_CHANNELS" envDefault:"true"`
}

// ExpoConfig configures the Expo token exchange.
type ExpoConfig struct {
	TokenURL string `env:"EXPO_TOKEN_URL" envDefault:"https://exp.host/--/api/v2/push/getExpoPushToken"`
}

// SessionConfig seeds the session store at startup.
type SessionConfig struct {
	AccessToken string `env:"SESSION_ACCESS_TOKEN"`

	// UserID is used with opaque access tokens. JWT access tokens carry
	// their own subject.
	UserID string `env:"SESSION_USER_ID"`
}

// PubSubConfig configures the inbound event subscription. An empty
// subscription disables it.
type PubSubConfig struct {
	ProjectID    string `env:"PUBSUB_PROJECT_ID"`
	Subscription string `env:"PUBSUB_SUBSCRIPTION"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads .env when present and parses the process environment.
func Load() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that parse but cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBaseURL, c.API.BaseURL)
	}
	if c.PubSub.Subscription != "" && c.PubSub.ProjectID == "" {
		return ErrPubSubProject
	}
	return nil
}

// TokenFormat returns the configured token envelope.
func (c Config) TokenFormat() pushtoken.Format {
	return pushtoken.Format{Prefix: c.Push.TokenPrefix, Suffix: c.Push.TokenSuffix}
}

// Level returns the log level, defaulting to info when LOG_LEVEL is invalid.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}
