package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"scripture-api-go/chapters"
	"scripture-api-go/circuitbreaker"
	"scripture-api-go/config"
	"scripture-api-go/logcolors"
	"scripture-api-go/middleware"
	"scripture-api-go/services/assistant"
	"scripture-api-go/services/bible"
	"scripture-api-go/stats"
	"scripture-api-go/store"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var conf = config.Get()

// passageAssistant is the part of the assistant the handlers use.
type passageAssistant interface {
	Enabled() bool
	Summarize(ctx context.Context, reference, text string) (*assistant.Summary, error)
	Search(ctx context.Context, query string) ([]assistant.SearchResult, error)
}

var (
	bibleClient  *bible.Client
	chapterCache *chapters.Cache
	aiAssistant  passageAssistant
	preferences  *store.Preferences
	ipLimiter    *middleware.IPRateLimiter
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Configuration.LogLevel)
	if err != nil {
		log.Warnf("%s Invalid LOG_LEVEL %q, using info", logcolors.LogConfig, conf.Configuration.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:      "BibleAPI",
		Threshold: conf.Configuration.CircuitBreakerThreshold,
		Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			if to == circuitbreaker.StateOpen {
				log.Errorf("%s %s is failing, uncached chapters are unavailable until it recovers", logcolors.LogWarning, name)
			} else {
				log.Infof("%s %s %s -> %s", logcolors.CircuitBreakerPrefix(name), name, from, to)
			}
		},
	})
	bibleClient = bible.NewClient(bible.ClientConfig{
		BaseURL:     conf.Configuration.BibleAPIBaseURL,
		Translation: conf.Configuration.BibleTranslation,
		Timeout:     time.Duration(conf.Configuration.BibleRequestTimeoutSecs) * time.Second,
		Breaker:     breaker,
	})
	chapterCache = chapters.New(bibleClient)

	db, err := store.Open(conf.Configuration.PreferencesDBPath)
	if err != nil {
		log.Fatalf("%s Failed to open preferences store: %v", logcolors.LogServer, err)
	}
	defer db.Close()
	preferences = store.NewPreferences(db)

	aiAssistant = setupAssistant()

	ipLimiter = middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond), conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.CachedRateLimitPerSecond), conf.Configuration.CachedRateLimitBurstLimit,
	)

	server := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           newHandler(ipLimiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("%s Listening on port %s (translation: %s)", logcolors.LogServer, conf.Configuration.Port, bibleClient.Translation())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s Server error: %v", logcolors.LogServer, err)
		}
	}()

	<-ctx.Done()
	log.Infof("%s Shutting down", logcolors.LogServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("%s Graceful shutdown failed: %v", logcolors.LogServer, err)
	}
}

func setupAssistant() passageAssistant {
	a, err := assistant.New(context.Background(), assistant.Config{
		APIKey:  conf.GeminiKey(),
		Model:   conf.Configuration.GeminiModel,
		BaseURL: conf.Configuration.GeminiBaseURL,
	})
	if err != nil {
		if errors.Is(err, assistant.ErrDisabled) {
			log.Warnf("%s No GEMINI_API_KEY or API_KEY set, summaries and search are disabled", logcolors.LogAssistant)
		} else {
			log.Errorf("%s Failed to create Gemini client, summaries and search are disabled: %v", logcolors.LogAssistant, err)
		}
		return a
	}

	log.Infof("%s Using model %s", logcolors.LogAssistant, a.Model())
	return a
}

// newHandler builds the router and wraps it with logging, CORS and rate limiting.
func newHandler(limiter *middleware.IPRateLimiter) http.Handler {
	router := mux.NewRouter()
	setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   conf.Configuration.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Cache-Status", "X-RateLimit-Type", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
	})

	loggedRouter := middleware.LoggingMiddleware(router)
	corsHandler := c.Handler(loggedRouter)
	return limitMiddleware(corsHandler, limiter)
}

// limitMiddleware admits each request under the normal tier, or under the
// cached tier in cache-only mode, or rejects it with 429.
func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := middleware.ClientIP(r)
		tier, remaining := limiter.Take(ip)
		stats.Get().RecordRateLimit(string(tier))

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit(tier)))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Type", string(tier))

		switch tier {
		case middleware.TierNormal:
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, string(tier))
			next.ServeHTTP(w, r.WithContext(ctx))
		case middleware.TierCached:
			log.Debugf("%s IP %s exceeded normal tier, using cached tier", logcolors.LogRateLimit, ip)
			ctx := context.WithValue(r.Context(), cacheOnlyModeKey, true)
			ctx = context.WithValue(ctx, rateLimitTypeKey, string(tier))
			next.ServeHTTP(w, r.WithContext(ctx))
		default:
			log.Warnf("%s IP %s exceeded both rate limit tiers", logcolors.LogRateLimit, ip)
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	})
}
