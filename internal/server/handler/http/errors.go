package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/DocPortal/internal/models"
	"go.uber.org/zap"
)

// errorStatus maps domain errors to HTTP status codes.
var errorStatus = []struct {
	err    error
	status int
}{
	{models.ErrUsernameTaken, http.StatusConflict},
	{models.ErrInvalidCredentials, http.StatusUnauthorized},
	{models.ErrUnauthenticated, http.StatusUnauthorized},
	{models.ErrUserNotFound, http.StatusNotFound},
	{models.ErrDocumentNotFound, http.StatusNotFound},
	{models.ErrPasswordMismatch, http.StatusBadRequest},
	{models.ErrNoFileSelected, http.StatusBadRequest},
	{models.ErrInvalidCategory, http.StatusBadRequest},
	{models.ErrInvalidUsername, http.StatusBadRequest},
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError turns err into a JSON error body. Only the matched domain
// error's message reaches the client; anything unrecognised is logged and
// reported as an internal error.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			writeJSON(w, e.status, map[string]string{"error": e.err.Error()})
			return
		}
	}
	log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}
