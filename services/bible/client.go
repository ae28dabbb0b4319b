package bible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"scripture-api-go/circuitbreaker"
	"scripture-api-go/logcolors"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL     = "https://bible-api.com"
	defaultTranslation = "almeida"
	defaultTimeout     = 10 * time.Second
	userAgent          = "scripture-api-go/1.0"

	// maxBodyBytes bounds a single chapter payload (Psalm 119 is ~60KB).
	maxBodyBytes = 4 << 20
)

// ClientConfig configures the chapter provider client.
type ClientConfig struct {
	BaseURL     string
	Translation string
	Timeout     time.Duration
	Breaker     *circuitbreaker.CircuitBreaker
	HTTPClient  *http.Client // optional; Timeout is ignored when set
}

// Client fetches chapters from bible-api.com for a single translation.
type Client struct {
	baseURL     string
	translation string
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
}

// NewClient creates a chapter provider client
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	translation := strings.TrimSpace(cfg.Translation)
	if translation == "" {
		translation = defaultTranslation
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New(circuitbreaker.Config{Name: "bible-api"})
	}

	return &Client{
		baseURL:     baseURL,
		translation: translation,
		httpClient:  httpClient,
		breaker:     breaker,
	}
}

// Translation returns the fixed translation identifier.
func (c *Client) Translation() string {
	return c.translation
}

// Breaker exposes the provider's circuit breaker for health and admin endpoints.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// ChapterURL builds the provider URL for one chapter.
func (c *Client) ChapterURL(book string, chapter int) string {
	return c.baseURL + "/" + url.PathEscape(book) + "+" + strconv.Itoa(chapter) +
		"?translation=" + url.QueryEscape(c.translation)
}

// FetchChapter performs one GET against the provider. Cancelling ctx aborts
// the request; the returned error then satisfies errors.Is(err, ctx.Err()).
func (c *Client) FetchChapter(ctx context.Context, book string, chapter int) (*Chapter, error) {
	if !c.breaker.Allow() {
		return nil, NewProviderError(book, chapter, 0, "provider unavailable", circuitbreaker.ErrCircuitOpen)
	}

	requestURL := c.ChapterURL(book, chapter)
	log.Debugf("%s GET %s", logcolors.LogHTTP, requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, NewProviderError(book, chapter, 0, "failed to create request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded by the caller, not a provider fault.
			c.breaker.ReleaseProbe()
			return nil, fmt.Errorf("fetch %s %d: %w", book, chapter, ctx.Err())
		}
		c.breaker.RecordFailure()
		return nil, NewProviderError(book, chapter, 0, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		return nil, NewProviderError(book, chapter, resp.StatusCode, "failed to load chapter", nil)
	}

	var payload Chapter
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			c.breaker.ReleaseProbe()
			return nil, fmt.Errorf("fetch %s %d: %w", book, chapter, ctx.Err())
		}
		c.breaker.RecordFailure()
		return nil, NewProviderError(book, chapter, resp.StatusCode, "failed to parse response", err)
	}

	c.breaker.RecordSuccess()
	log.Debugf("%s Fetched %s (%d verses)", logcolors.LogChapter, payload.Reference, len(payload.Verses))
	return &payload, nil
}
