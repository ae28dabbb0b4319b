package middleware

import (
	"net/http"
	"scripture-api-go/logcolors"
	"scripture-api-go/stats"
	"time"

	log "github.com/sirupsen/logrus"
)

// ResponseRecorder captures the status code and body size written by a handler.
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode  int
	BodySize    int
	wroteHeader bool
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(code int) {
	r.StatusCode = code
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

// Written reports whether the handler wrote anything.
func (r *ResponseRecorder) Written() bool {
	return r.wroteHeader
}

func getStatusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return logcolors.Green
	case code >= 300 && code < 400:
		return logcolors.Cyan
	case code >= 400 && code < 500:
		return logcolors.Yellow
	case code >= 500:
		return logcolors.Red
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs each request and feeds the request, status and
// timing counters. A request whose client left before anything was written
// is logged at debug level only.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s := stats.Get()
		s.RecordRequest(r.URL.Path)

		if !rec.Written() && r.Context().Err() != nil {
			log.Debugf("%s %s %s client went away after %v", logcolors.LogHTTP, r.Method, r.URL.Path, duration)
			return
		}

		s.RecordStatusCode(rec.StatusCode)
		s.RecordResponseTime(duration, r.URL.Path)

		log.Infof("%s %s %s %s%d%s %dB %v",
			logcolors.LogHTTP,
			r.Method,
			r.URL.RequestURI(),
			getStatusColor(rec.StatusCode),
			rec.StatusCode,
			logcolors.Reset,
			rec.BodySize,
			duration,
		)
	})
}
