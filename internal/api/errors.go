package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/store"
	"github.com/dgallion1/taskdoc/internal/taskid"
)

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, taskid.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, taskid.ErrDuplicateIdentifier):
		return http.StatusConflict
	case errors.Is(err, taskid.ErrInvalidIdentifier), errors.Is(err, engine.ErrUnknownOperation):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrRevisionMismatch):
		return http.StatusPreconditionFailed
	case errors.Is(err, store.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}

// errorKind names the error class in responses so clients need not parse messages.
func errorKind(err error) string {
	var te *taskid.Error
	if errors.As(err, &te) {
		return string(te.Kind)
	}
	switch statusFor(err) {
	case http.StatusNotFound:
		return "document_not_found"
	case http.StatusPreconditionFailed:
		return "revision_mismatch"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusBadRequest:
		return "bad_request"
	}
	return "internal"
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
		"kind":  errorKind(err),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
