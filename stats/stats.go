package stats

import (
	"strings"
	"sync/atomic"
	"time"
)

const maxInt64 = int64(^uint64(0) >> 1)

// Stats holds all server statistics with atomic counters
type Stats struct {
	// Server info
	StartTime time.Time

	// Request counters
	TotalRequests       atomic.Int64
	ChapterRequests     atomic.Int64
	SummaryRequests     atomic.Int64
	SearchRequests      atomic.Int64
	PreferencesRequests atomic.Int64
	CatalogRequests     atomic.Int64
	AdminRequests       atomic.Int64
	HealthRequests      atomic.Int64
	OtherRequests       atomic.Int64

	// Chapter cache outcomes as seen by handlers
	CacheHits         atomic.Int64
	CacheMisses       atomic.Int64
	CacheShared       atomic.Int64
	CacheOnlyServed   atomic.Int64 // served under the cached tier
	CacheOnlyRejected atomic.Int64 // rejected under the cached tier

	// Failures and cancellations
	Cancellations     atomic.Int64 // client went away before the chapter arrived
	ProviderFailures  atomic.Int64
	AssistantFailures atomic.Int64

	// Rate limiting
	RateLimitNormal   atomic.Int64
	RateLimitCached   atomic.Int64
	RateLimitExceeded atomic.Int64

	// Response status codes
	Status2xx atomic.Int64
	Status4xx atomic.Int64
	Status5xx atomic.Int64

	// Response time tracking (in microseconds for precision)
	totalResponseTime atomic.Int64
	responseCount     atomic.Int64
	minResponseTime   atomic.Int64
	maxResponseTime   atomic.Int64

	chapterResponseTime  atomic.Int64
	chapterResponseCount atomic.Int64
}

var global = New()

// New returns an empty Stats starting now.
func New() *Stats {
	s := &Stats{StartTime: time.Now()}
	s.minResponseTime.Store(maxInt64)
	return s
}

// Get returns the global stats instance
func Get() *Stats {
	return global
}

// Endpoint groups a request path for counting.
func Endpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/chapter/"):
		return "chapter"
	case path == "/summarize":
		return "summary"
	case path == "/search":
		return "search"
	case path == "/preferences":
		return "preferences"
	case path == "/books", path == "/resolve":
		return "catalog"
	case path == "/health":
		return "health"
	case path == "/stats", path == "/cache", strings.HasPrefix(path, "/cache/"), strings.HasPrefix(path, "/circuit-breaker"):
		return "admin"
	default:
		return "other"
	}
}

// RecordRequest records a request to path.
func (s *Stats) RecordRequest(path string) {
	s.TotalRequests.Add(1)
	switch Endpoint(path) {
	case "chapter":
		s.ChapterRequests.Add(1)
	case "summary":
		s.SummaryRequests.Add(1)
	case "search":
		s.SearchRequests.Add(1)
	case "preferences":
		s.PreferencesRequests.Add(1)
	case "catalog":
		s.CatalogRequests.Add(1)
	case "health":
		s.HealthRequests.Add(1)
	case "admin":
		s.AdminRequests.Add(1)
	default:
		s.OtherRequests.Add(1)
	}
}

// RecordCacheOutcome records how a chapter request was served: HIT, MISS or SHARED.
func (s *Stats) RecordCacheOutcome(outcome string) {
	switch outcome {
	case "HIT":
		s.CacheHits.Add(1)
	case "SHARED":
		s.CacheShared.Add(1)
	default:
		s.CacheMisses.Add(1)
	}
}

// RecordCacheOnly records a cached-tier chapter request and whether the cache could serve it.
func (s *Stats) RecordCacheOnly(served bool) {
	if served {
		s.CacheOnlyServed.Add(1)
		return
	}
	s.CacheOnlyRejected.Add(1)
}

func (s *Stats) RecordCancellation() {
	s.Cancellations.Add(1)
}

func (s *Stats) RecordProviderFailure() {
	s.ProviderFailures.Add(1)
}

func (s *Stats) RecordAssistantFailure() {
	s.AssistantFailures.Add(1)
}

// RecordRateLimit records rate limit tier usage
func (s *Stats) RecordRateLimit(tier string) {
	switch tier {
	case "normal":
		s.RateLimitNormal.Add(1)
	case "cached":
		s.RateLimitCached.Add(1)
	case "exceeded":
		s.RateLimitExceeded.Add(1)
	}
}

// RecordStatusCode records a response status code
func (s *Stats) RecordStatusCode(code int) {
	switch {
	case code >= 200 && code < 300:
		s.Status2xx.Add(1)
	case code >= 400 && code < 500:
		s.Status4xx.Add(1)
	case code >= 500:
		s.Status5xx.Add(1)
	}
}

// RecordResponseTime records a response time
func (s *Stats) RecordResponseTime(duration time.Duration, path string) {
	us := duration.Microseconds()

	s.totalResponseTime.Add(us)
	s.responseCount.Add(1)

	for {
		current := s.minResponseTime.Load()
		if us >= current || s.minResponseTime.CompareAndSwap(current, us) {
			break
		}
	}
	for {
		current := s.maxResponseTime.Load()
		if us <= current || s.maxResponseTime.CompareAndSwap(current, us) {
			break
		}
	}

	if Endpoint(path) == "chapter" {
		s.chapterResponseTime.Add(us)
		s.chapterResponseCount.Add(1)
	}
}

// Uptime returns the server uptime
func (s *Stats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// CacheHitRate returns the share of chapter requests that did not start a
// network request, as a percentage.
func (s *Stats) CacheHitRate() float64 {
	served := s.CacheHits.Load() + s.CacheShared.Load()
	total := served + s.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(served) / float64(total) * 100
}

// AvgResponseTime returns the average response time
func (s *Stats) AvgResponseTime() time.Duration {
	count := s.responseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.totalResponseTime.Load()/count) * time.Microsecond
}

// MinResponseTime returns the minimum response time
func (s *Stats) MinResponseTime() time.Duration {
	min := s.minResponseTime.Load()
	if min == maxInt64 {
		return 0
	}
	return time.Duration(min) * time.Microsecond
}

// MaxResponseTime returns the maximum response time
func (s *Stats) MaxResponseTime() time.Duration {
	return time.Duration(s.maxResponseTime.Load()) * time.Microsecond
}

// AvgChapterResponseTime returns the average response time for chapter requests
func (s *Stats) AvgChapterResponseTime() time.Duration {
	count := s.chapterResponseCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.chapterResponseTime.Load()/count) * time.Microsecond
}

// Snapshot returns a point-in-time snapshot of all stats
func (s *Stats) Snapshot() map[string]interface{} {
	uptime := s.Uptime()

	return map[string]interface{}{
		"server": map[string]interface{}{
			"start_time":     s.StartTime.Format(time.RFC3339),
			"uptime":         uptime.String(),
			"uptime_seconds": int64(uptime.Seconds()),
		},
		"requests": map[string]interface{}{
			"total":       s.TotalRequests.Load(),
			"chapter":     s.ChapterRequests.Load(),
			"summary":     s.SummaryRequests.Load(),
			"search":      s.SearchRequests.Load(),
			"preferences": s.PreferencesRequests.Load(),
			"catalog":     s.CatalogRequests.Load(),
			"admin":       s.AdminRequests.Load(),
			"health":      s.HealthRequests.Load(),
			"other":       s.OtherRequests.Load(),
		},
		"cache": map[string]interface{}{
			"hits":                s.CacheHits.Load(),
			"misses":              s.CacheMisses.Load(),
			"shared":              s.CacheShared.Load(),
			"cache_only_served":   s.CacheOnlyServed.Load(),
			"cache_only_rejected": s.CacheOnlyRejected.Load(),
			"hit_rate":            s.CacheHitRate(),
		},
		"failures": map[string]interface{}{
			"cancellations": s.Cancellations.Load(),
			"provider":      s.ProviderFailures.Load(),
			"assistant":     s.AssistantFailures.Load(),
		},
		"rate_limiting": map[string]interface{}{
			"normal_tier": s.RateLimitNormal.Load(),
			"cached_tier": s.RateLimitCached.Load(),
			"exceeded":    s.RateLimitExceeded.Load(),
		},
		"responses": map[string]interface{}{
			"2xx": s.Status2xx.Load(),
			"4xx": s.Status4xx.Load(),
			"5xx": s.Status5xx.Load(),
		},
		"response_times": map[string]interface{}{
			"avg":         s.AvgResponseTime().String(),
			"min":         s.MinResponseTime().String(),
			"max":         s.MaxResponseTime().String(),
			"avg_chapter": s.AvgChapterResponseTime().String(),
		},
	}
}
