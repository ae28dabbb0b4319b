package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// APIResponse handles consistent header setting and JSON responses.
// It sets X-Cache-Status and X-RateLimit-Type from the handler and the
// request context.
type APIResponse struct {
	w           http.ResponseWriter
	r           *http.Request
	cacheStatus string
	retryAfter  time.Duration
}

// Respond creates a response helper from request context
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetCacheStatus sets the X-Cache-Status header value
func (a *APIResponse) SetCacheStatus(status string) *APIResponse {
	a.cacheStatus = status
	return a
}

// SetRetryAfter sets the Retry-After header, rounded up to whole seconds.
func (a *APIResponse) SetRetryAfter(d time.Duration) *APIResponse {
	a.retryAfter = d
	return a
}

func (a *APIResponse) writeHeaders() {
	a.w.Header().Set("Content-Type", "application/json")

	if a.cacheStatus != "" {
		a.w.Header().Set("X-Cache-Status", a.cacheStatus)
	}
	if a.retryAfter > 0 {
		secs := int((a.retryAfter + time.Second - 1) / time.Second)
		a.w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		a.w.Header().Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes headers, sets status code, and encodes error response
func (a *APIResponse) Error(statusCode int, data interface{}) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(data)
}
