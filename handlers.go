package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"scripture-api-go/catalog"
	"scripture-api-go/chapters"
	"scripture-api-go/circuitbreaker"
	"scripture-api-go/logcolors"
	"scripture-api-go/services/assistant"
	"scripture-api-go/services/bible"
	"scripture-api-go/stats"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	msgChapterUnavailable = "Capítulo não disponível. Tente outro livro ou tradução."
	maxSummaryBodyBytes   = 4 << 10
)

// chapterParams resolves the {book} and {chapter} path variables. On failure
// it has already written the 400 or 404 response.
func chapterParams(w http.ResponseWriter, r *http.Request) (catalog.Book, int, bool) {
	vars := mux.Vars(r)
	return resolveChapter(w, r, vars["book"], vars["chapter"])
}

func resolveChapter(w http.ResponseWriter, r *http.Request, bookParam, chapterParam string) (catalog.Book, int, bool) {
	chapter, err := strconv.Atoi(strings.TrimSpace(chapterParam))
	if err != nil || chapter <= 0 || strings.TrimSpace(bookParam) == "" {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid chapter request",
			Message: "book must be non-empty and chapter a positive integer",
		})
		return catalog.Book{}, 0, false
	}

	book, ok := catalog.Find(bookParam)
	if !ok {
		Respond(w, r).Error(http.StatusNotFound, ErrorResponse{
			Error:   "Unknown book",
			Message: fmt.Sprintf("no book matches %q", bookParam),
		})
		return catalog.Book{}, 0, false
	}
	if !catalog.ValidChapter(book, chapter) {
		Respond(w, r).Error(http.StatusNotFound, ErrorResponse{
			Error:   "Chapter not found",
			Message: fmt.Sprintf("%s has %d chapters", book.Name, book.Chapters),
		})
		return catalog.Book{}, 0, false
	}
	return book, chapter, true
}

func isCacheOnly(r *http.Request) bool {
	cacheOnly, _ := r.Context().Value(cacheOnlyModeKey).(bool)
	return cacheOnly
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, message string) {
	Respond(w, r).SetRetryAfter(time.Second).Error(http.StatusTooManyRequests, ErrorResponse{
		Error:     "Rate limit exceeded",
		Message:   message,
		Retryable: true,
	})
}

// loadChapter returns the chapter through the cache, honouring cache-only
// mode. When it returns false the response has been handled: written, or left
// empty because the client went away.
func loadChapter(w http.ResponseWriter, r *http.Request, book catalog.Book, chapter int) (*bible.Chapter, chapters.Outcome, bool) {
	key := chapters.Key(book.APIName, chapter)

	if isCacheOnly(r) {
		ch, ok := chapterCache.Peek(book.APIName, chapter)
		stats.Get().RecordCacheOnly(ok)
		if !ok {
			log.Debugf("%s Cache-only mode, %s not cached", logcolors.LogRateLimit, key)
			writeRateLimited(w, r, "Only cached chapters are available right now, retry shortly")
			return nil, chapters.OutcomeMiss, false
		}
		return ch, chapters.OutcomeHit, true
	}

	ch, outcome, err := chapterCache.FetchWithOutcome(r.Context(), book.APIName, chapter)
	if err != nil {
		if chapters.IsCanceled(err) {
			stats.Get().RecordCancellation()
			log.Debugf("%s Request for %s superseded: %v", logcolors.LogCancel, key, err)
			return nil, outcome, false
		}
		writeFetchError(w, r, key, err)
		return nil, outcome, false
	}

	stats.Get().RecordCacheOutcome(outcome.String())
	return ch, outcome, true
}

func writeFetchError(w http.ResponseWriter, r *http.Request, key string, err error) {
	stats.Get().RecordProviderFailure()

	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		log.Warnf("%s Circuit open, not fetching %s", logcolors.LogChapter, key)
		var retry time.Duration
		if bibleClient != nil {
			retry = bibleClient.Breaker().TimeUntilRetry()
		}
		Respond(w, r).SetRetryAfter(retry).Error(http.StatusServiceUnavailable, ErrorResponse{
			Error:     msgChapterUnavailable,
			Message:   "chapter provider temporarily unavailable",
			Retryable: true,
		})
		return
	}

	log.Errorf("%s Failed to load %s: %v", logcolors.LogChapter, key, err)
	Respond(w, r).Error(http.StatusBadGateway, ErrorResponse{
		Error:     msgChapterUnavailable,
		Message:   err.Error(),
		Retryable: true,
	})
}

func getChapter(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := chapterParams(w, r)
	if !ok {
		return
	}

	ch, outcome, ok := loadChapter(w, r, book, chapter)
	if !ok {
		return
	}

	preferences.SaveReadingPosition(book, chapter)

	Respond(w, r).SetCacheStatus(outcome.String()).JSON(ChapterResponse{
		Book:    book,
		Chapter: chapter,
		Passage: ch,
	})
}

func getNavigation(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := chapterParams(w, r)
	if !ok {
		return
	}

	resp := NavigationResponse{Current: catalog.Position{Book: book, Chapter: chapter}}
	if prev, ok := catalog.Prev(book, chapter); ok {
		resp.Prev = &prev
	}
	if next, ok := catalog.Next(book, chapter); ok {
		resp.Next = &next
	}

	Respond(w, r).JSON(resp)
}

func getBooks(w http.ResponseWriter, r *http.Request) {
	translation := conf.Configuration.BibleTranslation
	if bibleClient != nil {
		translation = bibleClient.Translation()
	}

	Respond(w, r).JSON(BooksResponse{
		Translation:  translation,
		OldTestament: catalog.OldTestamentBooks(),
		NewTestament: catalog.NewTestamentBooks(),
	})
}

func resolveReference(w http.ResponseWriter, r *http.Request) {
	ref := strings.TrimSpace(r.URL.Query().Get("ref"))
	if ref == "" {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error:   "Missing reference",
			Message: "provide ?ref=, e.g. ?ref=João 3:16",
		})
		return
	}

	pos, err := catalog.ResolveReference(ref)
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, catalog.ErrInvalidReference) {
			status = http.StatusBadRequest
		}
		log.Debugf("%s Could not resolve %q: %v", logcolors.LogCatalog, ref, err)
		Respond(w, r).Error(status, ErrorResponse{Error: "Reference not resolved", Message: err.Error()})
		return
	}

	Respond(w, r).JSON(pos)
}

func summarizePassage(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSummaryBodyBytes)).Decode(&req); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}
	if req.Start < 0 || req.End < 0 || (req.End > 0 && req.Start > req.End) {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{Error: "Invalid verse range"})
		return
	}

	book, chapter, ok := resolveChapter(w, r, req.Book, strconv.Itoa(req.Chapter))
	if !ok {
		return
	}
	if isCacheOnly(r) {
		writeRateLimited(w, r, "Summaries are unavailable while rate limited, retry shortly")
		return
	}

	ch, _, ok := loadChapter(w, r, book, chapter)
	if !ok {
		return
	}

	verses := bible.SelectVerses(ch, req.Start, req.End)
	if len(verses) == 0 {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid verse range",
			Message: fmt.Sprintf("no verses of %s %d in the requested range", book.Name, chapter),
		})
		return
	}

	reference := bible.RangeReference(book.Name, chapter, verses[0].Verse, verses[len(verses)-1].Verse)
	resp := SummaryResponse{Reference: reference}

	if !conf.FeatureFlags.AISummary || aiAssistant == nil || !aiAssistant.Enabled() {
		log.Warnf("%s Summary requested for %s but the assistant is disabled", logcolors.LogSummary, reference)
		Respond(w, r).JSON(resp)
		return
	}

	summary, err := aiAssistant.Summarize(r.Context(), reference, bible.PassageText(verses))
	if err != nil {
		if chapters.IsCanceled(err) {
			stats.Get().RecordCancellation()
			return
		}
		stats.Get().RecordAssistantFailure()
		if errors.Is(err, assistant.ErrMalformedResponse) {
			log.Warnf("%s Discarding malformed summary for %s: %v", logcolors.LogSummary, reference, err)
		} else {
			log.Errorf("%s Summary failed for %s: %v", logcolors.LogSummary, reference, err)
		}
		Respond(w, r).JSON(resp)
		return
	}

	resp.Summary = summary
	Respond(w, r).JSON(resp)
}

func searchPassages(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{
			Error:   "Missing query",
			Message: "provide ?q=, e.g. ?q=amor ao próximo",
		})
		return
	}
	if isCacheOnly(r) {
		writeRateLimited(w, r, "Search is unavailable while rate limited, retry shortly")
		return
	}

	resp := SearchResponse{Query: query, Results: []SearchHit{}}

	if !conf.FeatureFlags.AISearch || aiAssistant == nil || !aiAssistant.Enabled() {
		log.Warnf("%s Search requested but the assistant is disabled", logcolors.LogSearch)
		Respond(w, r).JSON(resp)
		return
	}

	results, err := aiAssistant.Search(r.Context(), query)
	if err != nil {
		if chapters.IsCanceled(err) {
			stats.Get().RecordCancellation()
			return
		}
		stats.Get().RecordAssistantFailure()
		log.Errorf("%s Search failed for %q: %v", logcolors.LogSearch, query, err)
		Respond(w, r).JSON(resp)
		return
	}

	for _, res := range results {
		hit := SearchHit{Reference: res.Reference, Reason: res.Reason}
		if pos, err := catalog.ResolveReference(res.Reference); err == nil {
			hit.Position = &pos
		} else {
			log.Debugf("%s Result %q does not map to the catalog: %v", logcolors.LogSearch, res.Reference, err)
		}
		resp.Results = append(resp.Results, hit)
	}

	Respond(w, r).JSON(resp)
}

func currentPreferences() PreferencesResponse {
	pos := preferences.ReadingPosition()
	return PreferencesResponse{
		Book:     pos.Book,
		Chapter:  pos.Chapter,
		DarkMode: preferences.DarkMode(conf.FeatureFlags.DefaultDarkMode),
	}
}

func getPreferences(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(currentPreferences())
}

func updatePreferences(w http.ResponseWriter, r *http.Request) {
	var update PreferencesUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSummaryBodyBytes)).Decode(&update); err != nil {
		Respond(w, r).Error(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Message: err.Error()})
		return
	}

	if update.Book != nil || update.Chapter != nil {
		current := preferences.ReadingPosition()
		bookParam := current.Book.ID
		if update.Book != nil {
			bookParam = *update.Book
		}
		chapter := 1
		if update.Chapter != nil {
			chapter = *update.Chapter
		} else if update.Book == nil {
			chapter = current.Chapter
		}

		book, chapter, ok := resolveChapter(w, r, bookParam, strconv.Itoa(chapter))
		if !ok {
			return
		}
		preferences.SaveReadingPosition(book, chapter)
	}
	if update.DarkMode != nil {
		preferences.SetDarkMode(*update.DarkMode)
	}

	log.Debugf("%s Preferences updated", logcolors.LogPreferences)
	Respond(w, r).JSON(currentPreferences())
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:           "ok",
		Translation:      conf.Configuration.BibleTranslation,
		AssistantEnabled: aiAssistant != nil && aiAssistant.Enabled(),
		CachedChapters:   chapterCache.Stats().Entries,
	}

	if bibleClient != nil {
		health.Translation = bibleClient.Translation()
		health.CircuitBreaker = bibleClient.Breaker().Snapshot()
		if bibleClient.Breaker().State() == circuitbreaker.StateOpen {
			health.Status = "degraded"
		}
	}

	Respond(w, r).JSON(health)
}

func getStats(w http.ResponseWriter, r *http.Request) {
	snapshot := stats.Get().Snapshot()
	snapshot["chapter_cache"] = chapterCache.Stats()
	if bibleClient != nil {
		snapshot["circuit_breaker"] = bibleClient.Breaker().Snapshot()
	}
	if ipLimiter != nil {
		snapshot["rate_limiter"] = map[string]interface{}{
			"normal_burst":    ipLimiter.GetNormalLimit(),
			"cached_burst":    ipLimiter.GetCachedLimit(),
			"tracked_clients": ipLimiter.Clients(),
		}
	}

	Respond(w, r).JSON(snapshot)
}

func getCacheDump(w http.ResponseWriter, r *http.Request) {
	keys := chapterCache.Keys()
	Respond(w, r).JSON(CacheDumpResponse{
		NumberOfKeys: len(keys),
		Keys:         keys,
		Stats:        chapterCache.Stats(),
	})
}

func clearCache(w http.ResponseWriter, r *http.Request) {
	removed := chapterCache.Clear()
	log.Infof("%s Cache cleared by %s", logcolors.LogAdmin, r.RemoteAddr)

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Cached chapters cleared",
		"removed": removed,
	})
}

func forgetChapter(w http.ResponseWriter, r *http.Request) {
	book, chapter, ok := chapterParams(w, r)
	if !ok {
		return
	}

	key := chapters.Key(book.APIName, chapter)
	if !chapterCache.Forget(book.APIName, chapter) {
		Respond(w, r).Error(http.StatusNotFound, ErrorResponse{
			Error:   "Not cached",
			Message: fmt.Sprintf("%s is not a resolved cache entry", key),
		})
		return
	}

	log.Infof("%s Forgot %s", logcolors.LogCacheChapter, key)
	Respond(w, r).JSON(map[string]interface{}{
		"message": "Chapter removed from cache",
		"key":     key,
	})
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"breaker": bibleClient.Breaker().Snapshot(),
		"config": map[string]interface{}{
			"threshold":    conf.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": conf.Configuration.CircuitBreakerCooldownSecs,
		},
	})
}

func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	bibleClient.Breaker().Reset()
	log.Infof("%s Circuit breaker reset by %s", logcolors.LogAdmin, r.RemoteAddr)

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"endpoints": map[string]string{
			"GET /chapter/{book}/{chapter}":            "Chapter text, e.g. /chapter/john/3",
			"GET /chapter/{book}/{chapter}/navigation": "Previous and next chapter",
			"GET /books":                               "All books by testament",
			"GET /resolve?ref=":                        "Resolve a reference such as João 3:16",
			"POST /summarize":                          `AI summary, body {"book":"john","chapter":3,"start":1,"end":21}`,
			"GET /search?q=":                           "AI search for passages about a topic",
			"GET /preferences":                         "Last reading position and theme",
			"PUT /preferences":                         `Update, body {"book":"john","chapter":3,"darkMode":true}`,
			"GET /health":                              "Service health",
		},
	})
}
