package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps handler so that the first middleware is the outermost.
func Chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return handler
}

// ErrorBody is the JSON envelope of a failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error kind and a human readable message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// WriteError writes status with an ErrorBody.
func WriteError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
	if err != nil {
		slog.Debug("writing error response", slog.Any("error", err))
	}
}

// errorJSON renders an ErrorBody for handlers that take a fixed body.
func errorJSON(kind, message string) string {
	data, _ := json.Marshal(ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}}) //nolint:errchkjson

	return string(data)
}
