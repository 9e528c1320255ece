package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"duit/internal/core"
)

// validationErrs are the domain errors that mean the caller's input was bad.
// They never leave partial state behind, so 400 is safe.
var validationErrs = []error{
	core.ErrInvalidType,
	core.ErrInvalidAmount,
	core.ErrEmptyName,
	core.ErrEmptyAccountType,
	core.ErrEmptyCategory,
	core.ErrNoFields,
	core.ErrEmailTaken,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps a domain error to its status code. Anything unrecognized is
// a storage failure: the atomic unit already rolled back, so a generic 500 is
// all the caller needs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	for _, ve := range validationErrs {
		if errors.Is(err, ve) {
			badRequest(w, ve.Error())
			return
		}
	}
	slog.ErrorContext(r.Context(), "Request failed",
		"error", err,
		"method", r.Method,
		"url", r.URL.Path)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// pathID parses the {id} route segment. A malformed id is answered exactly
// like an absent entity.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrNotFound
	}
	return id, nil
}

// decodeBody decodes a JSON request body into v, keeping numbers as
// json.Number so money amounts never take a float detour.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}
