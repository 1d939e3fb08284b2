package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

const defaultTimeoutDuration = 30 * time.Second

// Timeout bounds request processing. A handler still running when the
// deadline passes has its context cancelled and the client gets 503 with an
// "internal" error body. A non-positive duration falls back to 30s.
func Timeout(duration time.Duration) Middleware {
	if duration <= 0 {
		slog.Warn("middleware: timeout must be positive, using default",
			slog.Duration("provided", duration), slog.Duration("default", defaultTimeoutDuration))

		duration = defaultTimeoutDuration
	}

	body := errorJSON("internal", "request timed out")

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, duration, body)
	}
}
