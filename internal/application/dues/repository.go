package dues

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

// Repository defines storage operations for recurring dues and their instances.
// Every read and write is scoped by owner; a foreign ID behaves like a missing one.
type Repository interface {
	// === Due Operations ===

	// CreateDue persists a new due. Returns the due as stored, with version set.
	CreateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error)

	// FindDue returns domain.ErrDueNotFound if the due doesn't exist for ownerID.
	FindDue(ctx context.Context, ownerID, id string) (*domain.RecurringDue, error)

	// ListDues returns the owner's dues ordered by creation time.
	ListDues(ctx context.Context, ownerID string) ([]*domain.RecurringDue, error)

	// UpdateDue writes every field of due and increments its version.
	// Returns domain.ErrVersionConflict if the stored version differs from due.Version.
	UpdateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error)

	// DeleteDue removes the due and, by cascade, all of its instances.
	DeleteDue(ctx context.Context, ownerID, id string) error

	// === Instance Operations ===

	// InsertInstances inserts the batch, silently skipping dates the due already has.
	// Returns the number of rows actually inserted.
	InsertInstances(ctx context.Context, instances []*domain.DueInstance) (int64, error)

	// DeleteFutureUnpaidInstances deletes the due's unpaid instances dated after the given day.
	// Returns the number of rows deleted.
	DeleteFutureUnpaidInstances(ctx context.Context, ownerID, dueID string, after civil.Date) (int64, error)

	// ListInstances returns instances matching filter ordered by due date.
	ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.DueInstance, error)

	// FindInstance returns domain.ErrInstanceNotFound if the instance doesn't exist for ownerID.
	FindInstance(ctx context.Context, ownerID, id string) (*domain.DueInstance, error)

	// SetInstancePaid sets is_paid, paid_on and paid_amount in one statement.
	// A nil paidOn marks the instance unpaid and clears the amount.
	SetInstancePaid(ctx context.Context, ownerID, id string, paidOn *time.Time, paidAmount decimal.NullDecimal) (*domain.DueInstance, error)

	// === Transactions ===

	// Atomic runs fn in a transaction; any error rolls everything back.
	Atomic(ctx context.Context, fn func(repo Repository) error) error

	// AtomicSchedule runs the delete and insert of a schedule regeneration together.
	AtomicSchedule(ctx context.Context, fn func(ops ScheduleOperations) error) error
}

// ScheduleOperations is the narrow set of writes a regeneration performs.
// It is ONLY used within AtomicSchedule callbacks.
type ScheduleOperations interface {
	DeleteFutureUnpaidInstances(ctx context.Context, ownerID, dueID string, after civil.Date) (int64, error)
	InsertInstances(ctx context.Context, instances []*domain.DueInstance) (int64, error)
}
