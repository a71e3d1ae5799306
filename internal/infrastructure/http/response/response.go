// Package response writes the JSON success and error bodies shared by all
// HTTP handlers.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/badyetly/badyetly/internal/domain"
)

// encodeFailureJSON is written when a success body cannot be marshaled.
const encodeFailureJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// OK sends a 200 OK response with JSON data.
func OK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response with JSON data.
func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeJSON marshals before writing the status so an encoding failure can
// still be reported as a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureJSON))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeError(w, statusCode, ErrorDetail{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, statusCode int, detail ErrorDetail) {
	if detail.Details == nil {
		detail.Details = []ErrorField{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: detail}); err != nil {
		slog.Error("failed to write error response", "code", detail.Code, "error", err)
	}
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	ValidationErrors(w, []ErrorField{{Field: field, Issue: issue}})
}

// ValidationErrors sends a 400 validation error listing several fields.
func ValidationErrors(w http.ResponseWriter, fields []ErrorField) {
	writeError(w, http.StatusBadRequest, ErrorDetail{
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Details: fields,
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Unauthorized sends a 401 Unauthorized error.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, "CONFLICT", message, http.StatusConflict)
}

// InternalError sends a 500 with a generic message and logs err server-side.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Internal server error", "error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// PartialRegeneration reports a due that was saved while its schedule was not
// rebuilt. The client should reload the due's instances.
func PartialRegeneration(w http.ResponseWriter, r *http.Request, err *domain.PartialRegenerationError) {
	slog.ErrorContext(r.Context(), "due saved with stale schedule",
		"due_id", err.DueID,
		"stage", err.Stage,
		"error", err.Err)
	writeError(w, http.StatusInternalServerError, ErrorDetail{
		Code:    "PARTIAL_REGENERATION",
		Message: "the due was saved but its schedule could not be updated; reload to see the current schedule",
		Details: []ErrorField{{Field: "stage", Issue: string(err.Stage)}},
	})
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *domain.PartialRegenerationError

	switch {
	case errors.As(err, &partial):
		PartialRegeneration(w, r, partial)

	// Validation errors (400)
	case errors.Is(err, domain.ErrTitleRequired):
		ValidationError(w, "title", "required field missing")
	case errors.Is(err, domain.ErrTitleTooLong):
		ValidationError(w, "title", "must be 255 characters or less")
	case errors.Is(err, domain.ErrInvalidID):
		ValidationError(w, "id", "invalid ID format")
	case errors.Is(err, domain.ErrInvalidCategory):
		ValidationError(w, "category", "invalid category")
	case errors.Is(err, domain.ErrInvalidStatus):
		ValidationError(w, "status", "invalid due status")
	case errors.Is(err, domain.ErrAmountRequired):
		ValidationError(w, "amount", "required for this category")
	case errors.Is(err, domain.ErrInvalidAmount):
		ValidationError(w, "amount", "must be a positive number")
	case errors.Is(err, domain.ErrInvalidPaidAmount):
		ValidationError(w, "paid_amount", "must not be negative")
	case errors.Is(err, domain.ErrInvalidFixedDay):
		ValidationError(w, "fixed_day_of_month", "must be between 1 and 31")
	case errors.Is(err, domain.ErrFixedDayUnit):
		ValidationError(w, "fixed_day_of_month", "only applies to monthly or quarterly schedules")
	case errors.Is(err, domain.ErrEmptyUpdateMask):
		ValidationError(w, "update_mask", "must not be empty")
	case errors.Is(err, domain.ErrUnknownField):
		ValidationError(w, "update_mask", err.Error())
	case errors.Is(err, domain.ErrInvalidRecurrence):
		ValidationError(w, "schedule", err.Error())

	// Not found errors (404)
	case errors.Is(err, domain.ErrDueNotFound):
		NotFound(w, "due")
	case errors.Is(err, domain.ErrInstanceNotFound):
		NotFound(w, "instance")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// Auth errors (401)
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrOwnerRequired):
		Unauthorized(w, "invalid or missing API key")

	// Concurrency errors (409)
	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, err.Error())

	default:
		InternalError(w, r, err)
	}
}
