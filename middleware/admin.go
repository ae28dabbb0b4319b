package middleware

import (
	"crypto/subtle"
	"net/http"
	"scripture-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// AdminTokenMiddleware admits requests whose Authorization header equals
// token. With no token configured every admin request is refused.
func AdminTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("Authorization")

			if token == "" {
				log.Warnf("%s Admin token not configured, refusing %s", logcolors.LogAdmin, r.URL.Path)
				writeUnauthorized(w, `{"error":"Admin endpoints disabled","message":"Set ADMIN_ACCESS_TOKEN to enable them"}`)
				return
			}
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				log.Warnf("%s Unauthorized request from %s for %s", logcolors.LogAdmin, ClientIP(r), r.URL.Path)
				writeUnauthorized(w, `{"error":"Unauthorized","message":"Provide the admin token via the Authorization header"}`)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(body))
}
