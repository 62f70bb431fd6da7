// Package response writes API responses in a single place, so handlers
// never hand-roll status codes or error bodies.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freakandi/ha-pp-reader-sub007/internal/apperrors"
	"github.com/Freakandi/ha-pp-reader-sub007/internal/validation"
)

// JSON writes a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// HTML writes an HTML fragment response.
func HTML(w http.ResponseWriter, status int, fragment string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(fragment))
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Error maps an error to its HTTP status and writes the error body.
// Unmapped errors become an opaque 500; the cause belongs in the log, not
// on the wire.
func Error(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrPositionsNotFound),
		errors.Is(err, apperrors.ErrSnapshotNotFound),
		errors.Is(err, apperrors.ErrSettingNotFound):
		JSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrUnknownDataType),
		errors.Is(err, apperrors.ErrNotAnObject),
		errors.Is(err, apperrors.ErrMissingRequiredField),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrEmptyID):
		JSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		JSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	case errors.Is(err, apperrors.ErrFailedToFetchAccounts),
		errors.Is(err, apperrors.ErrFailedToFetchPortfolios),
		errors.Is(err, apperrors.ErrFailedToFetchPositions):
		JSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	default:
		JSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}
