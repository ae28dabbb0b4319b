package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Tier is the rate limit tier a request was admitted under.
type Tier string

const (
	// TierNormal requests may reach the chapter provider.
	TierNormal Tier = "normal"
	// TierCached requests are served only from already cached chapters.
	TierCached Tier = "cached"
	// TierExceeded requests are rejected with 429.
	TierExceeded Tier = "exceeded"
)

// LimiterPair holds both normal and cached tier limiters for an IP
type LimiterPair struct {
	Normal *rate.Limiter
	Cached *rate.Limiter
}

// GetNormalTokens returns the number of tokens available in the normal tier
func (lp *LimiterPair) GetNormalTokens() int {
	return int(math.Floor(lp.Normal.Tokens()))
}

// GetCachedTokens returns the number of tokens available in the cached tier
func (lp *LimiterPair) GetCachedTokens() int {
	return int(math.Floor(lp.Cached.Tokens()))
}

// IPRateLimiter manages two-tier rate limiting per client IP. Once a client
// spends its normal tier it falls back to the cached tier, where chapter
// requests are answered only from the cache.
type IPRateLimiter struct {
	ips         map[string]*LimiterPair
	mu          sync.Mutex
	normalRate  rate.Limit
	normalBurst int
	cachedRate  rate.Limit
	cachedBurst int
}

// NewIPRateLimiter creates a new two-tier rate limiter
func NewIPRateLimiter(normalRate rate.Limit, normalBurst int, cachedRate rate.Limit, cachedBurst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*LimiterPair),
		normalRate:  normalRate,
		normalBurst: normalBurst,
		cachedRate:  cachedRate,
		cachedBurst: cachedBurst,
	}
}

// GetNormalLimit returns the normal tier burst limit
func (i *IPRateLimiter) GetNormalLimit() int {
	return i.normalBurst
}

// GetCachedLimit returns the cached tier burst limit
func (i *IPRateLimiter) GetCachedLimit() int {
	return i.cachedBurst
}

// GetLimiter returns the limiter pair for ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *LimiterPair {
	i.mu.Lock()
	defer i.mu.Unlock()

	pair, ok := i.ips[ip]
	if !ok {
		pair = &LimiterPair{
			Normal: rate.NewLimiter(i.normalRate, i.normalBurst),
			Cached: rate.NewLimiter(i.cachedRate, i.cachedBurst),
		}
		i.ips[ip] = pair
	}
	return pair
}

// Take spends one token for ip, trying the normal tier first. It returns the
// tier that admitted the request and the tokens left in that tier.
func (i *IPRateLimiter) Take(ip string) (Tier, int) {
	pair := i.GetLimiter(ip)

	if pair.Normal.Allow() {
		return TierNormal, pair.GetNormalTokens()
	}
	if pair.Cached.Allow() {
		return TierCached, pair.GetCachedTokens()
	}
	return TierExceeded, 0
}

// Limit returns the burst limit of tier.
func (i *IPRateLimiter) Limit(tier Tier) int {
	if tier == TierNormal {
		return i.GetNormalLimit()
	}
	return i.GetCachedLimit()
}

// Clients returns how many client IPs are being tracked.
func (i *IPRateLimiter) Clients() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.ips)
}

// ClientIP returns the host part of r.RemoteAddr, so that every connection
// from one client shares a limiter.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
