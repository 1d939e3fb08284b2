package middleware

import (
	"log/slog"
	"net/http"
)

const defaultMaxRequestSizeBytes int64 = 1 << 20

// MaxRequestSize limits request bodies with http.MaxBytesReader. Reading past
// the limit fails with *http.MaxBytesError, which handlers should answer with
// 413. A non-positive limit falls back to 1MiB.
func MaxRequestSize(bytes int64) Middleware {
	if bytes <= 0 {
		slog.Warn("middleware: request size limit must be positive, using default",
			slog.Int64("provided", bytes), slog.Int64("default", defaultMaxRequestSizeBytes))

		bytes = defaultMaxRequestSizeBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, bytes)
			next.ServeHTTP(w, r)
		})
	}
}
