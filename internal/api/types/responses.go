package types

import "github.com/scopeforge/engine/pkg/pagination"

// APIResponse is the envelope every endpoint writes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"requestId,omitempty"`
	*pagination.Meta
}

// AcceptedJob is returned when a generation is queued instead of run inline.
type AcceptedJob struct {
	TaskID string `json:"taskId"`
	Family string `json:"family"`
	Queue  string `json:"queue"`
}

// TokenResponse is returned by login.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   string `json:"expiresAt"`
	User        any    `json:"user"`
	Caller      any    `json:"caller"`
}
