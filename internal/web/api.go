package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/arsarazi/realty/internal/logging"
	"github.com/arsarazi/realty/internal/property"
	"github.com/arsarazi/realty/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiFail maps err to a response: validation errors are 400 with the
// failing fields, missing records 404, anything else a logged 500.
func (s *Server) apiFail(w http.ResponseWriter, r *http.Request, action string, err error) {
	var verr *property.ValidationError
	switch {
	case errors.As(err, &verr):
		apiJSON(w, map[string]interface{}{"error": "validation failed", "fields": verr.Fields}, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	default:
		s.logger.Error(action, "error", err, "request_id", logging.RequestIDFrom(r.Context()))
		apiError(w, fmt.Sprintf("%s failed", action), http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// splitPath strips prefix from the request path and returns the id and any
// trailing sub-resource, e.g. "/api/contact/7/status" gives ("7", "status").
func splitPath(r *http.Request, prefix string) (id, sub string) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	id, sub, _ = strings.Cut(path, "/")
	return id, sub
}

// parseID parses a positive record id.
func parseID(w http.ResponseWriter, raw, what string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apiError(w, fmt.Sprintf("invalid %s ID", what), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// intParam reads an optional positive integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		apiError(w, fmt.Sprintf("%s must be a positive integer", name), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func methodNotAllowed(w http.ResponseWriter) {
	apiError(w, "method not allowed", http.StatusMethodNotAllowed)
}

func unavailable(w http.ResponseWriter, what string) {
	apiError(w, what+" not available", http.StatusServiceUnavailable)
}
