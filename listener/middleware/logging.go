package middleware

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// statusWriter records the status code and body size of a response.
type statusWriter struct {
	http.ResponseWriter

	status   int
	bytes    int
	written  bool
	hijacked bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true

		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.status = http.StatusOK
		w.written = true
	}

	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	return n, err //nolint:wrapcheck
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	conn, buf, err := http.NewResponseController(w.ResponseWriter).Hijack()
	if err == nil {
		w.hijacked = true
	}

	return conn, buf, err //nolint:wrapcheck
}

func (w *statusWriter) Flush() {
	err := http.NewResponseController(w.ResponseWriter).Flush()
	if err == nil && !w.written {
		w.status = http.StatusOK
		w.written = true
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Logging logs one record per request through the default slog logger:
// method, path, status, response size, duration and request ID. 5xx logs at
// Error, 4xx at Warn and everything else at Info.
func Logging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				if sw.hijacked {
					sw.status = http.StatusSwitchingProtocols
				} else {
					sw.status = http.StatusOK
				}
			}

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Int("bytes", sw.bytes),
				slog.Duration("duration", time.Since(start)),
			}

			if reqID := GetRequestID(r.Context()); reqID != "" {
				attrs = append(attrs, slog.String("request_id", reqID))
			}

			const msg = "api request"

			switch {
			case sw.status >= http.StatusInternalServerError:
				slog.Error(msg, attrs...) //nolint:gosec // msg is a constant
			case sw.status >= http.StatusBadRequest:
				slog.Warn(msg, attrs...) //nolint:gosec // msg is a constant
			default:
				slog.Info(msg, attrs...) //nolint:gosec // msg is a constant
			}
		})
	}
}
