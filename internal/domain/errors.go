package domain

import (
	"errors"
	"fmt"
)

// Domain errors returned by the schedule core, the application service and
// repository implementations.

var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDueNotFound indicates the recurring due does not exist or belongs to another owner.
	ErrDueNotFound = errors.New("recurring due not found")

	// ErrInstanceNotFound indicates the due instance does not exist or belongs to another owner.
	ErrInstanceNotFound = errors.New("due instance not found")

	// ErrInvalidID indicates the provided ID format is invalid.
	ErrInvalidID = errors.New("invalid ID format")

	// ErrOwnerRequired indicates an operation was attempted without an owner identifier.
	ErrOwnerRequired = errors.New("owner ID is required")

	// ErrVersionConflict indicates the due was modified concurrently.
	ErrVersionConflict = errors.New("version conflict: due was modified by another request")
)

// Validation errors.
var (
	ErrTitleRequired     = errors.New("title is required")
	ErrTitleTooLong      = errors.New("title must be 255 characters or less")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidStatus     = errors.New("invalid due status")
	ErrAmountRequired    = errors.New("amount is required for fixed-amount categories")
	ErrInvalidAmount     = errors.New("amount must be a positive number")
	ErrInvalidPaidAmount = errors.New("paid amount must not be negative")
	ErrInvalidFixedDay   = errors.New("fixed day of month must be between 1 and 31")
	ErrFixedDayUnit      = errors.New("fixed day of month only applies to monthly or quarterly schedules")
	ErrEmptyUpdateMask   = errors.New("update mask must not be empty")
	ErrUnknownField      = errors.New("unknown field in update mask")
)

// ErrInvalidRecurrence indicates a recurrence definition that cannot produce a
// schedule: a non-positive multiplier, an unknown unit, a missing start date
// or an invalid end policy.
var ErrInvalidRecurrence = errors.New("invalid recurrence definition")

// Authentication errors.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidAPIKeyFormat = errors.New("invalid API key format")
)

// ErrPartialRegeneration matches any *PartialRegenerationError.
var ErrPartialRegeneration = errors.New("schedule regeneration partially failed")

// RegenerationStage names the step of a regeneration that failed.
type RegenerationStage string

const (
	StageLoad   RegenerationStage = "load"
	StagePlan   RegenerationStage = "plan"
	StageDelete RegenerationStage = "delete"
	StageInsert RegenerationStage = "insert"
)

// PartialRegenerationError is returned when a due definition was saved but
// replacing its future instances did not complete. The schedule may be stale
// and the caller should tell the user to reload it.
type PartialRegenerationError struct {
	DueID string
	Stage RegenerationStage
	Err   error
}

func (e *PartialRegenerationError) Error() string {
	return fmt.Sprintf("due %s saved but schedule regeneration failed at %s: %v", e.DueID, e.Stage, e.Err)
}

func (e *PartialRegenerationError) Unwrap() error {
	return e.Err
}

// Is reports ErrPartialRegeneration as a match so callers can use errors.Is.
func (e *PartialRegenerationError) Is(target error) bool {
	return target == ErrPartialRegeneration
}
