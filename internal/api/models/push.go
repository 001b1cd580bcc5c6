package models

import "encoding/json"

// PushToken describes the cached push token. The token itself is never
// returned.
type PushToken struct {
	Present     bool   `json:"present"`
	TokenSuffix string `json:"tokenSuffix,omitempty"`
	State       string `json:"state"`
}

// RegisterPushRequest optionally names the identity to register for. The
// current session's user is used when it is empty.
type RegisterPushRequest struct {
	UserID string `json:"userId,omitempty"`
}

// RegisterPushResult is the outcome of a registration run.
type RegisterPushResult struct {
	TokenSuffix  string `json:"tokenSuffix,omitempty"`
	Registered   bool   `json:"registered"`
	Skipped      bool   `json:"skipped"`
	BackendError string `json:"backendError,omitempty"`
}

// PushEvent is an inbound event injected through the ops server.
type PushEvent struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data,omitempty"`
	Token string          `json:"token,omitempty"`
}
