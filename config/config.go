package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		Port                      string   `envconfig:"PORT" default:"8080"`
		AllowedOrigins            []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
		LogLevel                  string   `envconfig:"LOG_LEVEL" default:"info"`
		RateLimitPerSecond        int      `envconfig:"RATE_LIMIT_PER_SECOND" default:"5"`
		RateLimitBurstLimit       int      `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"10"`
		CachedRateLimitPerSecond  int      `envconfig:"CACHED_RATE_LIMIT_PER_SECOND" default:"20"`
		CachedRateLimitBurstLimit int      `envconfig:"CACHED_RATE_LIMIT_BURST_LIMIT" default:"40"`
		AdminAccessToken          string   `envconfig:"ADMIN_ACCESS_TOKEN" default:""`

		// Chapter provider
		BibleAPIBaseURL         string `envconfig:"BIBLE_API_BASE_URL" default:"https://bible-api.com"`
		BibleTranslation        string `envconfig:"BIBLE_TRANSLATION" default:"almeida"`
		BibleRequestTimeoutSecs int    `envconfig:"BIBLE_REQUEST_TIMEOUT_SECS" default:"10"`

		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`     // Consecutive failures before circuit opens
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"60"` // Seconds to wait before retrying

		// Gemini
		GeminiAPIKey   string `envconfig:"GEMINI_API_KEY" default:""`
		FallbackAPIKey string `envconfig:"API_KEY" default:""`
		GeminiModel    string `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
		GeminiBaseURL  string `envconfig:"GEMINI_BASE_URL" default:""`

		PreferencesDBPath string `envconfig:"PREFERENCES_DB_PATH" default:"./data/preferences.db"`
	}

	FeatureFlags struct {
		AISummary       bool `envconfig:"FF_AI_SUMMARY" default:"true"`
		AISearch        bool `envconfig:"FF_AI_SEARCH" default:"true"`
		DefaultDarkMode bool `envconfig:"FF_DEFAULT_DARK_MODE" default:"false"`
	}
}

// GeminiKey returns the configured Gemini API key, preferring GEMINI_API_KEY over API_KEY.
func (c Config) GeminiKey() string {
	if key := strings.TrimSpace(c.Configuration.GeminiAPIKey); key != "" {
		return key
	}
	return strings.TrimSpace(c.Configuration.FallbackAPIKey)
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
