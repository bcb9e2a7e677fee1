package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/listenupapp/taxonomy-server/internal/errors"
	"github.com/listenupapp/taxonomy-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]string{"code": "countries"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	result := decode(t, w)
	assert.True(t, result.Success)
	assert.Empty(t, result.Code)

	dataMap, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "countries", dataMap["code"])
}

func TestSuccess_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, "ok", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestFailureHelpers(t *testing.T) {
	tests := []struct {
		name     string
		write    func(http.ResponseWriter, string, *slog.Logger)
		status   int
		wantCode domainerrors.Code
	}{
		{"bad request", BadRequest, http.StatusBadRequest, domainerrors.CodeValidation},
		{"too many requests", TooManyRequests, http.StatusTooManyRequests, domainerrors.CodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			tt.write(w, "something failed", nil)

			assert.Equal(t, tt.status, w.Code)
			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Nil(t, result.Data)
			assert.Equal(t, string(tt.wantCode), result.Code)
			assert.Equal(t, "something failed", result.Message)
		})
	}
}

func TestCodeForStatus(t *testing.T) {
	tests := map[int]domainerrors.Code{
		http.StatusBadRequest:          domainerrors.CodeValidation,
		http.StatusUnprocessableEntity: domainerrors.CodeValidation,
		http.StatusUnauthorized:        domainerrors.CodeUnauthorized,
		http.StatusForbidden:           domainerrors.CodeForbidden,
		http.StatusNotFound:            domainerrors.CodeNotFound,
		http.StatusConflict:            domainerrors.CodeConflict,
		http.StatusTooManyRequests:     domainerrors.CodeRateLimited,
		http.StatusInternalServerError: domainerrors.CodeInternal,
		http.StatusBadGateway:          domainerrors.CodeInternal,
	}
	for status, want := range tests {
		assert.Equal(t, want, CodeForStatus(status), "status %d", status)
	}
}

func TestClassify(t *testing.T) {
	status, env, ok := Classify(store.ErrAlreadyExists)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Code)
	assert.False(t, env.Success)

	_, _, ok = Classify(errors.New("plain"))
	assert.False(t, ok)
}

func TestHandleError_DomainError(t *testing.T) {
	w := httptest.NewRecorder()
	err := domainerrors.ValidationWithDetails("invalid prefer header", map[string]string{"include": "unknown flag \"xyz\""})

	HandleError(w, err, discardLogger())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	result := decode(t, w)
	assert.Equal(t, "VALIDATION", result.Code)
	assert.Equal(t, "invalid prefer header", result.Message)
	assert.NotNil(t, result.Details)
}

func TestHandleError_WrappedForbidden(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.Join(errors.New("context"), domainerrors.Forbiddenf("no read grant for taxonomy %q", "internal"))

	HandleError(w, err, discardLogger())

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decode(t, w).Code)
}

func TestHandleError_StoreError(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, store.ErrTermNotFound, discardLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w).Code)
}

func TestHandleError_Unknown(t *testing.T) {
	w := httptest.NewRecorder()

	HandleError(w, errors.New("disk on fire"), discardLogger())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	result := decode(t, w)
	assert.Equal(t, "internal server error", result.Message)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestEnvelope_OmitEmpty(t *testing.T) {
	data, err := json.Marshal(Envelope{Success: true, Data: "test"})
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"data":"test"`)
	assert.NotContains(t, string(data), `"code"`)
	assert.NotContains(t, string(data), `"details"`)
}
