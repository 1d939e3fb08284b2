package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	uci "github.com/0xalexb/hjarta-uci"
	"github.com/0xalexb/hjarta-uci/listener/middleware"
)

// Handler serves the uci operations of a Store.
type Handler struct {
	store *Store
	mux   *http.ServeMux
}

// NewHandler returns a Handler routing POST /uci/{op} to store and
// GET /version to the build information.
func NewHandler(store *Store) *Handler {
	h := &Handler{store: store, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /uci/{op}", h.serveOperation)
	h.mux.HandleFunc("GET /version", serveVersion)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) serveOperation(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("op")

	op, ok := operations[name]
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, string(uci.KindNotFound), "unknown operation "+name)

		return
	}

	var req Request

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, string(uci.KindInvalidArgument), "request body too large")

			return
		}

		middleware.WriteError(w, http.StatusBadRequest, string(uci.KindInvalidArgument), "decoding request: "+err.Error())

		return
	}

	var result any

	err := h.store.Do(r.Context(), func(c *uci.Context) error {
		var opErr error

		result, opErr = op(c, &req)

		return opErr
	})
	if err != nil {
		writeFailure(w, r, name, err)

		return
	}

	writeJSON(w, http.StatusOK, Response{Result: result})
}

func serveVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Response{Result: map[string]string{
		"version":     uci.Version,
		"commit":      uci.Commit,
		"compiled_at": uci.CompiledAt,
	}})
}

// StatusOf maps an error kind to the HTTP status the API answers with.
func StatusOf(kind uci.Kind) int {
	switch kind {
	case uci.KindNotFound:
		return http.StatusNotFound
	case uci.KindInvalidArgument, uci.KindUnsupportedType:
		return http.StatusBadRequest
	case uci.KindNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		middleware.WriteError(w, http.StatusServiceUnavailable, string(uci.KindInternal), err.Error())

		return
	}

	kind := uci.KindOf(err)
	if kind == "" {
		kind = uci.KindInternal
	}

	status := StatusOf(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "operation failed",
			slog.String("op", op), slog.String("kind", string(kind)), slog.Any("error", err),
			slog.String("request_id", middleware.GetRequestID(r.Context())))
	}

	middleware.WriteError(w, status, string(kind), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("writing response", slog.Any("error", err))
	}
}
