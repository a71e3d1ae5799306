package response_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/domain"
	"github.com/badyetly/badyetly/internal/infrastructure/http/response"
)

// unencodableType fails during JSON encoding.
type unencodableType struct {
	BadField chan int `json:"bad_field"`
}

func (u unencodableType) MarshalJSON() ([]byte, error) {
	_, err := json.Marshal(u.BadField)
	return nil, err
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body), "body must be valid JSON")
	return body
}

func TestOK_EncodingFailure_Returns500WithErrorJSON(t *testing.T) {
	w := httptest.NewRecorder()

	response.OK(w, unencodableType{})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decodeError(t, w)
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "failed to encode response", body.Error.Message)
}

func TestCreated_EncodingFailure_Returns500WithErrorJSON(t *testing.T) {
	w := httptest.NewRecorder()

	response.Created(w, unencodableType{})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, w).Error.Code)
}

func TestOK_Success_ReturnsValidJSON(t *testing.T) {
	w := httptest.NewRecorder()

	response.OK(w, map[string]any{"id": "123", "items": []string{"a", "b"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"123","items":["a","b"]}`, w.Body.String())
}

func TestCreated_Success_ReturnsValidJSON(t *testing.T) {
	w := httptest.NewRecorder()

	response.Created(w, map[string]string{"id": "456"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"456"}`, w.Body.String())
}

func TestError_AlwaysIncludesDetailsArray(t *testing.T) {
	w := httptest.NewRecorder()

	response.Error(w, "TEST_ERROR", "test error message", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t,
		`{"error":{"code":"TEST_ERROR","message":"test error message","details":[]}}`,
		w.Body.String())
}

func TestValidationError_Success_ReturnsValidJSON(t *testing.T) {
	w := httptest.NewRecorder()

	response.ValidationError(w, "title", "required field missing")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Equal(t, "validation failed", body.Error.Message)
	assert.Equal(t, []response.ErrorField{{Field: "title", Issue: "required field missing"}}, body.Error.Details)
}

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"title required", domain.ErrTitleRequired, http.StatusBadRequest, "VALIDATION_ERROR", "title"},
		{"invalid id", fmt.Errorf("%w: due", domain.ErrInvalidID), http.StatusBadRequest, "VALIDATION_ERROR", "id"},
		{"amount required", domain.ErrAmountRequired, http.StatusBadRequest, "VALIDATION_ERROR", "amount"},
		{"fixed day before recurrence", fmt.Errorf("%w: %w", domain.ErrInvalidRecurrence, domain.ErrInvalidFixedDay),
			http.StatusBadRequest, "VALIDATION_ERROR", "fixed_day_of_month"},
		{"fixed day with weekly unit", fmt.Errorf("%w: %w", domain.ErrInvalidRecurrence, domain.ErrFixedDayUnit),
			http.StatusBadRequest, "VALIDATION_ERROR", "fixed_day_of_month"},
		{"recurrence", fmt.Errorf("%w: multiplier", domain.ErrInvalidRecurrence), http.StatusBadRequest, "VALIDATION_ERROR", "schedule"},
		{"unknown mask field", fmt.Errorf("%w: color", domain.ErrUnknownField), http.StatusBadRequest, "VALIDATION_ERROR", "update_mask"},
		{"due not found", domain.ErrDueNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"instance not found", domain.ErrInstanceNotFound, http.StatusNotFound, "NOT_FOUND", ""},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"owner missing", domain.ErrOwnerRequired, http.StatusUnauthorized, "UNAUTHORIZED", ""},
		{"version conflict", domain.ErrVersionConflict, http.StatusConflict, "CONFLICT", ""},
		{"partial regeneration",
			&domain.PartialRegenerationError{DueID: "d1", Stage: domain.StageInsert, Err: errors.New("disk full")},
			http.StatusInternalServerError, "PARTIAL_REGENERATION", "stage"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			response.FromDomainError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantField != "" {
				require.Len(t, body.Error.Details, 1)
				assert.Equal(t, tt.wantField, body.Error.Details[0].Field)
			}
		})
	}
}

func TestFromDomainError_DoesNotLeakInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	response.FromDomainError(w, r, errors.New("pq: password authentication failed"))

	assert.NotContains(t, w.Body.String(), "password")
}
