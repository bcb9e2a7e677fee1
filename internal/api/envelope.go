package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/taxonomy-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope, so typed
// operations and the plain chi handlers answer with the same shape:
//
//	{"success": true, "data": ...}
//	{"success": false, "code": "NOT_FOUND", "message": "...", "details": ...}
//
// Bodiless responses (204) pass through untouched.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	code, _ := strconv.Atoi(status)

	switch body := v.(type) {
	case *APIError:
		return response.Envelope{Code: body.Code, Message: body.Message, Details: body.Details}, nil
	case error:
		return response.Envelope{Code: string(response.CodeForStatus(code)), Message: body.Error()}, nil
	}

	if code >= 400 {
		return response.Envelope{Code: string(response.CodeForStatus(code)), Details: v}, nil
	}
	return response.Envelope{Success: true, Data: v}, nil
}
