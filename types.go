package main

import (
	"scripture-api-go/catalog"
	"scripture-api-go/chapters"
	"scripture-api-go/circuitbreaker"
	"scripture-api-go/services/assistant"
	"scripture-api-go/services/bible"
)

type contextKey string

const (
	cacheOnlyModeKey contextKey = "cacheOnlyMode"
	rateLimitTypeKey contextKey = "rateLimitType"
)

// ChapterResponse is the body of GET /chapter/{book}/{chapter}.
type ChapterResponse struct {
	Book    catalog.Book   `json:"book"`
	Chapter int            `json:"chapter"`
	Passage *bible.Chapter `json:"passage"`
}

// NavigationResponse holds the neighbouring chapters, null at either end of the canon.
type NavigationResponse struct {
	Current catalog.Position  `json:"current"`
	Prev    *catalog.Position `json:"prev"`
	Next    *catalog.Position `json:"next"`
}

// BooksResponse is the catalog split by testament.
type BooksResponse struct {
	Translation  string         `json:"translation"`
	OldTestament []catalog.Book `json:"old_testament"`
	NewTestament []catalog.Book `json:"new_testament"`
}

// SummaryRequest is the body of POST /summarize. Start and End default to
// the whole chapter.
type SummaryRequest struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Start   int    `json:"start,omitempty"`
	End     int    `json:"end,omitempty"`
}

// SummaryResponse carries a null summary when the assistant could not produce one.
type SummaryResponse struct {
	Reference string             `json:"reference"`
	Summary   *assistant.Summary `json:"summary"`
}

// SearchHit is one search result, with the catalog position when the
// reference resolves.
type SearchHit struct {
	Reference string            `json:"reference"`
	Reason    string            `json:"reason"`
	Position  *catalog.Position `json:"position,omitempty"`
}

type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

// PreferencesResponse is the reader's saved state.
type PreferencesResponse struct {
	Book     catalog.Book `json:"book"`
	Chapter  int          `json:"chapter"`
	DarkMode bool         `json:"darkMode"`
}

// PreferencesUpdate is the body of PUT /preferences. Omitted fields are left as they are.
type PreferencesUpdate struct {
	Book     *string `json:"book,omitempty"`
	Chapter  *int    `json:"chapter,omitempty"`
	DarkMode *bool   `json:"darkMode,omitempty"`
}

// CacheDumpResponse is the response format for the /cache endpoint
type CacheDumpResponse struct {
	NumberOfKeys int            `json:"number_of_keys"`
	Keys         []string       `json:"keys"`
	Stats        chapters.Stats `json:"stats"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string                  `json:"status"`
	Translation      string                  `json:"translation"`
	CircuitBreaker   circuitbreaker.Snapshot `json:"circuit_breaker"`
	AssistantEnabled bool                    `json:"assistant_enabled"`
	CachedChapters   int                     `json:"cached_chapters"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
