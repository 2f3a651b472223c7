package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"resbook/internal/auth"
	"resbook/internal/database"
	"resbook/internal/service"

	"github.com/rs/zerolog"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// respondError maps domain errors to HTTP statuses. Unknown errors
// become opaque 500s so internals do not leak to clients.
func respondError(w http.ResponseWriter, logger *zerolog.Logger, err error) {
	var validation *database.ValidationError
	var conflict *database.ConflictError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, database.ErrPastDate),
		errors.Is(err, database.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":          err.Error(),
			"conflicting_id": conflict.ConflictingID,
		})
	case errors.Is(err, database.ErrInvalidState),
		errors.Is(err, database.ErrResourceInUse),
		errors.Is(err, database.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, database.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		logger.Error().Err(err).Msg("internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON enforces strict request bodies.
func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return database.NewValidationError("invalid JSON body")
	}
	return nil
}
