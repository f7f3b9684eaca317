package util

import (
	"encoding/json"
	"errors"
	"net/http"

	"wopiproxy/internal/model"
)

// writeAuthError writes the spec-mandated {"error": reason} body alongside
// a 401 (spec.md §4.6 preamble steps 1 and 3: invalid_token, expired, token_mismatch).
func writeAuthError(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": reason})
}

// WriteWOPIError maps a domain error to the WOPI wire convention: an HTTP
// status plus, where applicable, X-WOPI-Lock / X-WOPI-ServerError headers.
// This replaces substring matching on error text with a typed-error switch.
func WriteWOPIError(w http.ResponseWriter, err error) {
	if lm, ok := model.AsLockMismatch(err); ok {
		w.Header().Set("X-WOPI-Lock", lm.CurrentLock())
		w.WriteHeader(http.StatusConflict)
		return
	}

	switch {
	case errors.Is(err, model.ErrInvalidToken):
		writeAuthError(w, "invalid_token")
	case errors.Is(err, model.ErrSessionExpired):
		writeAuthError(w, "expired")
	case errors.Is(err, model.ErrTokenMismatch):
		writeAuthError(w, "token_mismatch")
	case errors.Is(err, model.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, model.ErrTenantDisabled), errors.Is(err, model.ErrEditorDisabled):
		w.WriteHeader(http.StatusForbidden)
	case errors.Is(err, model.ErrUnsupportedCapability):
		w.WriteHeader(http.StatusNotImplemented)
	case errors.Is(err, model.ErrStorageFailure):
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// WriteNotAuthorized is the WOPI convention for hiding existence from a
// caller without write permission: 404 plus a diagnostic header, never 403.
func WriteNotAuthorized(w http.ResponseWriter) {
	w.Header().Set("X-WOPI-ServerError", "NotAuthorized")
	w.WriteHeader(http.StatusNotFound)
}
