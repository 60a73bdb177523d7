// Package middleware provides HTTP middleware for metrics collection.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeanbgt59/ecoagent/internal/metrics"
)

// Swappable in tests.
var recordHTTPRequest = metrics.RecordHTTPRequest

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		endpoint := normalizeEndpoint(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		recordHTTPRequest(r.Method, endpoint, status, duration)
	})
}

func normalizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/runs/") && !strings.Contains(path[10:], "/"):
		return "/api/runs/:id"
	case strings.HasPrefix(path, "/api/history/run/") && !strings.Contains(path[17:], "/"):
		return "/api/history/run/:id"
	case strings.HasPrefix(path, "/api/reports/") && !strings.Contains(path[13:], "/"):
		return "/api/reports/:type"
	default:
		return path
	}
}
