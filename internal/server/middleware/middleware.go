// Package middleware wraps the daemon's HTTP handlers with access logging
// and panic recovery.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
)

// Chain applies panic recovery innermost and access logging outermost, so a
// recovered panic still shows up in the access log with its 500 status.
func Chain(logger *slog.Logger, adapter *errors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Logging(logger)(Recover(logger, adapter)(next))
	}
}

// Logging records one line per request. Probe endpoints are polled by
// health checks and Prometheus scrapes, so they log at debug to keep the
// daemon's output readable.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			level := slog.LevelInfo
			if probeEndpoint(r.URL.Path) {
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "HTTP request",
				logfields.Method(r.Method),
				logfields.Path(r.URL.Path),
				logfields.Status(sw.status),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())),
				logfields.RemoteAddr(r.RemoteAddr))
		})
	}
}

// Recover turns handler panics into structured 500 responses instead of
// killing the daemon's serve goroutine.
func Recover(logger *slog.Logger, adapter *errors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.Error("HTTP handler panic",
						slog.Any("panic", v),
						logfields.Method(r.Method),
						logfields.Path(r.URL.Path))
					adapter.WriteErrorResponse(w,
						errors.New(errors.CategoryInternal, errors.SeverityError, "internal server error").
							WithContext("path", r.URL.Path))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func probeEndpoint(path string) bool {
	return path == "/healthz" || path == "/metrics"
}

// statusWriter captures the response status for the access log.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
