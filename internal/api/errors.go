package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/taxonomy-server/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	var details []string
	for _, err := range errs {
		if err == nil {
			continue
		}

		if known, env, ok := response.Classify(err); ok {
			return &APIError{status: known, Code: env.Code, Message: env.Message, Details: env.Details}
		}

		details = append(details, err.Error())
	}

	apiErr := &APIError{
		status:  status,
		Code:    string(response.CodeForStatus(status)),
		Message: message,
	}
	// Huma's own request validation reports one error per failing field.
	if status < 500 && len(details) > 0 {
		apiErr.Details = details
	}
	return apiErr
}
