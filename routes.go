package main

import (
	"net/http"
	"scripture-api-go/middleware"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Reading
	router.HandleFunc("/chapter/{book}/{chapter}", getChapter).Methods(http.MethodGet)
	router.HandleFunc("/chapter/{book}/{chapter}/navigation", getNavigation).Methods(http.MethodGet)
	router.HandleFunc("/books", getBooks).Methods(http.MethodGet)
	router.HandleFunc("/resolve", resolveReference).Methods(http.MethodGet)

	// Assistant
	router.HandleFunc("/summarize", summarizePassage).Methods(http.MethodPost)
	router.HandleFunc("/search", searchPassages).Methods(http.MethodGet)

	// Reader state
	router.HandleFunc("/preferences", getPreferences).Methods(http.MethodGet)
	router.HandleFunc("/preferences", updatePreferences).Methods(http.MethodPut)

	router.HandleFunc("/health", getHealthStatus).Methods(http.MethodGet)

	// Admin endpoints, gated by ADMIN_ACCESS_TOKEN
	admin := middleware.AdminTokenMiddleware(conf.Configuration.AdminAccessToken)
	router.Handle("/stats", admin(http.HandlerFunc(getStats))).Methods(http.MethodGet)
	router.Handle("/cache", admin(http.HandlerFunc(getCacheDump))).Methods(http.MethodGet)
	router.Handle("/cache/clear", admin(http.HandlerFunc(clearCache))).Methods(http.MethodPost)
	router.Handle("/cache/{book}/{chapter}", admin(http.HandlerFunc(forgetChapter))).Methods(http.MethodDelete)
	router.Handle("/circuit-breaker", admin(http.HandlerFunc(getCircuitBreakerStatus))).Methods(http.MethodGet)
	router.Handle("/circuit-breaker/reset", admin(http.HandlerFunc(resetCircuitBreaker))).Methods(http.MethodPost)

	// Help endpoint
	router.HandleFunc("/", helpHandler).Methods(http.MethodGet)
}
