package bible

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"scripture-api-go/circuitbreaker"
	"strings"
	"testing"
	"time"
)

const john3Payload = `{
	"reference": "João 3",
	"verses": [
		{"book_id": "JHN", "book_name": "João", "chapter": 3, "verse": 1, "text": "E havia entre os fariseus um homem, chamado Nicodemos.\n"},
		{"book_id": "JHN", "book_name": "João", "chapter": 3, "verse": 16, "text": "Porque Deus amou o mundo de tal maneira...\n"}
	],
	"text": "E havia entre os fariseus um homem...",
	"translation_id": "almeida",
	"translation_name": "João Ferreira de Almeida",
	"translation_note": "Public Domain"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker *circuitbreaker.CircuitBreaker) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:     server.URL,
		Translation: "almeida",
		Timeout:     2 * time.Second,
		Breaker:     breaker,
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(ClientConfig{})

	if c.baseURL != defaultBaseURL {
		t.Errorf("Expected base URL %q, got %q", defaultBaseURL, c.baseURL)
	}
	if c.Translation() != "almeida" {
		t.Errorf("Expected translation almeida, got %q", c.Translation())
	}
	if c.httpClient.Timeout != defaultTimeout {
		t.Errorf("Expected timeout %v, got %v", defaultTimeout, c.httpClient.Timeout)
	}
	if c.Breaker() == nil {
		t.Error("Expected a default circuit breaker")
	}
}

func TestChapterURL(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://bible-api.com/", Translation: "almeida"})

	tests := []struct {
		book     string
		chapter  int
		expected string
	}{
		{"john", 3, "https://bible-api.com/john+3?translation=almeida"},
		{"1 samuel", 17, "https://bible-api.com/1%20samuel+17?translation=almeida"},
		{"song of solomon", 2, "https://bible-api.com/song%20of%20solomon+2?translation=almeida"},
	}

	for _, tt := range tests {
		t.Run(tt.book, func(t *testing.T) {
			if got := c.ChapterURL(tt.book, tt.chapter); got != tt.expected {
				t.Errorf("ChapterURL(%q, %d) = %q, want %q", tt.book, tt.chapter, got, tt.expected)
			}
		})
	}
}

func TestFetchChapter_Success(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(john3Payload))
	}, nil)

	ch, err := c.FetchChapter(context.Background(), "john", 3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if gotPath != "/john+3" {
		t.Errorf("Expected path /john+3, got %q", gotPath)
	}
	if gotQuery != "translation=almeida" {
		t.Errorf("Expected translation query, got %q", gotQuery)
	}
	if ch.Reference != "João 3" {
		t.Errorf("Expected reference 'João 3', got %q", ch.Reference)
	}
	if len(ch.Verses) != 2 || ch.Verses[1].Verse != 16 {
		t.Errorf("Unexpected verses: %+v", ch.Verses)
	}
	if ch.TranslationID != "almeida" {
		t.Errorf("Expected translation_id almeida, got %q", ch.TranslationID)
	}
}

func TestFetchChapter_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		expectFailures int
	}{
		{"not found is not a provider outage", http.StatusNotFound, 0},
		{"server error counts against breaker", http.StatusInternalServerError, 1},
		{"rate limited counts against breaker", http.StatusTooManyRequests, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 10})
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}, breaker)

			_, err := c.FetchChapter(context.Background(), "genesis", 99)

			var perr *ProviderError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *ProviderError, got %T: %v", err, err)
			}
			if perr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, perr.StatusCode)
			}
			if breaker.Failures() != tt.expectFailures {
				t.Errorf("Expected %d breaker failures, got %d", tt.expectFailures, breaker.Failures())
			}
		})
	}
}

func TestFetchChapter_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reference": `))
	}, nil)

	_, err := c.FetchChapter(context.Background(), "john", 3)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProviderError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "failed to parse response") {
		t.Errorf("Expected parse failure message, got %q", err.Error())
	}
}

func TestFetchChapter_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 10})
	c := NewClient(ClientConfig{BaseURL: server.URL, Breaker: breaker})

	_, err := c.FetchChapter(context.Background(), "john", 3)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected *ProviderError, got %T: %v", err, err)
	}
	if perr.StatusCode != 0 {
		t.Errorf("Expected no status code for transport error, got %d", perr.StatusCode)
	}
	if breaker.Failures() != 1 {
		t.Errorf("Expected 1 breaker failure, got %d", breaker.Failures())
	}
}

func TestFetchChapter_Cancelled(t *testing.T) {
	release := make(chan struct{})
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 1})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, breaker)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := c.FetchChapter(ctx, "john", 3)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		t.Error("Cancellation must not be reported as a provider error")
	}
	if breaker.Failures() != 0 {
		t.Errorf("Cancellation must not count against the breaker, got %d failures", breaker.Failures())
	}
}

func TestFetchChapter_CancelledProbeReleasesBreaker(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 1, Cooldown: 10 * time.Millisecond})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(30 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(john3Payload))
	}, breaker)

	breaker.RecordFailure()
	time.Sleep(20 * time.Millisecond)

	// The first request after the cooldown is the probe; its caller gives up early.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := c.FetchChapter(ctx, "john", 3); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected context.DeadlineExceeded, got %v", err)
	}
	if breaker.State() == circuitbreaker.StateHalfOpen {
		t.Fatal("Abandoned probe must not leave the breaker HALF-OPEN")
	}
	if breaker.Failures() != 1 {
		t.Errorf("Abandoned probe must not count as a failure, got %d failures", breaker.Failures())
	}

	ch, err := c.FetchChapter(context.Background(), "john", 3)
	if err != nil {
		t.Fatalf("Expected the next request to probe and succeed, got %v", err)
	}
	if ch.Reference != "João 3" {
		t.Errorf("Unexpected reference %q", ch.Reference)
	}
	if breaker.State() != circuitbreaker.StateClosed {
		t.Errorf("Expected CLOSED after a successful probe, got %s", breaker.State())
	}
}

func TestFetchChapter_CircuitOpen(t *testing.T) {
	calls := 0
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test", Threshold: 1, Cooldown: time.Minute})
	breaker.RecordFailure()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	}, breaker)

	_, err := c.FetchChapter(context.Background(), "john", 3)

	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("Expected ErrCircuitOpen, got %v", err)
	}
	if calls != 0 {
		t.Errorf("Expected no upstream call while open, got %d", calls)
	}
}

func TestProviderError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ProviderError
		expected string
	}{
		{
			name:     "with status",
			err:      NewProviderError("john", 3, 500, "failed to load chapter", nil),
			expected: "bible-api: john 3: failed to load chapter (status 500)",
		},
		{
			name:     "with wrapped error",
			err:      NewProviderError("john", 3, 0, "request failed", errors.New("connection refused")),
			expected: "bible-api: john 3: request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}
