package models

// Health is the body of the liveness and readiness endpoints.
type Health struct {
	Status  HealthStatus      `json:"status"`
	Time    Timestamp         `json:"time"`
	Details map[string]string `json:"details,omitempty"`
}

// SystemStatus reports the registration state and upstream health.
type SystemStatus struct {
	Status       HealthStatus     `json:"status"`
	Time         Timestamp        `json:"time"`
	Registration string           `json:"registration"`
	Upstreams    []UpstreamStatus `json:"upstreams"`
}

// UpstreamStatus is the breaker state of an outbound client.
type UpstreamStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}
