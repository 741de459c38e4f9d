package models

import (
	"net/http"
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassRead covers GET and HEAD.
	ClassRead EndpointClass = "read"
	// ClassWrite covers every mutation, including uploads.
	ClassWrite EndpointClass = "write"
)

// ClassFor picks the class of a request method.
func ClassFor(method string) EndpointClass {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	default:
		return ClassWrite
	}
}

// Limit is a sliding-window allowance.
type Limit struct {
	Requests int
	Window   time.Duration
}

func (l Limit) Enabled() bool {
	return l.Requests > 0 && l.Window > 0
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the API response when a limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
