// Package response writes the JSON envelope shared by every API endpoint.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

// Envelope is the body of every API response.
// Successful responses carry Data; failed ones carry Code, Message and optional Details.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Failure builds the error envelope for status, with the code derived from it.
func Failure(status int, message string) Envelope {
	return Envelope{Code: string(CodeForStatus(status)), Message: message}
}

// Classify maps domain and store errors to their status and error envelope.
// ok is false for any other error.
func Classify(err error) (status int, env Envelope, ok bool) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus(), Envelope{
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}, true
	}

	// Store sentinels carry their own status, e.g. 404 for a missing taxonomy.
	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.HTTPCode(), Failure(storeErr.HTTPCode(), storeErr.Message), true
	}

	return 0, Envelope{}, false
}

// Write sends env with the given status.
func Write(w http.ResponseWriter, status int, env Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(env); err != nil && logger != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

// Success writes data with 200 OK.
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	Write(w, http.StatusOK, Envelope{Success: true, Data: data}, logger)
}

// BadRequest writes a 400 validation failure.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Write(w, http.StatusBadRequest, Failure(http.StatusBadRequest, message), logger)
}

// TooManyRequests writes a 429 rate limit failure.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Write(w, http.StatusTooManyRequests, Failure(http.StatusTooManyRequests, message), logger)
}

// HandleError writes the envelope for err. Domain and store errors keep their
// status; anything else is logged and hidden behind a 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	if status, env, ok := Classify(err); ok {
		Write(w, status, env, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	Write(w, http.StatusInternalServerError, Failure(http.StatusInternalServerError, "internal server error"), logger)
}

// CodeForStatus maps an HTTP status to the domain error code reported to clients.
func CodeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	default:
		return domainerrors.CodeInternal
	}
}
