package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Cache-related log prefixes
const (
	LogCache        = Blue + "[Cache]" + Reset
	LogCacheChapter = Green + "[Cache:Chapter]" + Reset
	LogCacheClear   = Blue + "[Cache:Clear]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAdmin     = Purple + "[Admin]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
)

// Reader service log prefixes
const (
	LogChapter     = Blue + "[Chapter]" + Reset
	LogHTTP        = Cyan + "[HTTP]" + Reset
	LogCancel      = Cyan + "[Cancel]" + Reset
	LogAssistant   = Green + "[Assistant]" + Reset
	LogSummary     = Green + "[Summary]" + Reset
	LogSearch      = Blue + "[Search]" + Reset
	LogPreferences = Cyan + "[Preferences]" + Reset
	LogCatalog     = Blue + "[Catalog]" + Reset
	LogWarning     = Red + "[Warning]" + Reset
)
