package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

const dueColumns = `id, owner_id, title, amount, category, start_date,
	recurrence_unit, recurrence_multiplier, fixed_day_of_month,
	end_kind, end_date, end_count, status, notes, created_at, updated_at, version`

const instanceColumns = `id, recurring_due_id, owner_id, due_date, is_paid, paid_on,
	paid_amount, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// CreateDue inserts a new due at version 1.
func (s *Store) CreateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	if err := checkID("due", due.ID); err != nil {
		return nil, err
	}
	endKind, endDate, endCount := endPolicyColumns(due.EndPolicy)

	row := s.q.QueryRowContext(ctx, `
		INSERT INTO recurring_dues (
			id, owner_id, title, amount, category, start_date,
			recurrence_unit, recurrence_multiplier, fixed_day_of_month,
			end_kind, end_date, end_count, status, notes, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		RETURNING `+dueColumns,
		due.ID, due.OwnerID, due.Title, formatDecimal(due.Amount), string(due.Category),
		formatDate(due.StartDate), string(due.RecurrenceUnit), due.RecurrenceMultiplier,
		due.FixedDayOfMonth, endKind, endDate, endCount, string(due.Status), due.Notes,
		formatTime(due.CreatedAt), formatTime(due.UpdatedAt),
	)

	created, err := scanDue(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create due: %w", err)
	}
	return created, nil
}

// FindDue retrieves a due owned by ownerID.
func (s *Store) FindDue(ctx context.Context, ownerID, id string) (*domain.RecurringDue, error) {
	if err := checkID("due", id); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+dueColumns+` FROM recurring_dues WHERE id = ? AND owner_id = ?`, id, ownerID)

	due, err := scanDue(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDueNotFound, id)
		}
		return nil, fmt.Errorf("failed to get due: %w", err)
	}
	return due, nil
}

// ListDues returns every due of ownerID, oldest first.
func (s *Store) ListDues(ctx context.Context, ownerID string) ([]*domain.RecurringDue, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+dueColumns+` FROM recurring_dues WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}
	defer rows.Close()

	result := []*domain.RecurringDue{}
	for rows.Next() {
		due, err := scanDue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due: %w", err)
		}
		result = append(result, due)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list dues: %w", err)
	}
	return result, nil
}

// UpdateDue writes every mutable field and bumps the version when the stored
// version still equals due.Version.
func (s *Store) UpdateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	if err := checkID("due", due.ID); err != nil {
		return nil, err
	}
	endKind, endDate, endCount := endPolicyColumns(due.EndPolicy)

	row := s.q.QueryRowContext(ctx, `
		UPDATE recurring_dues SET
			title = ?3, amount = ?4, category = ?5, start_date = ?6,
			recurrence_unit = ?7, recurrence_multiplier = ?8, fixed_day_of_month = ?9,
			end_kind = ?10, end_date = ?11, end_count = ?12, status = ?13, notes = ?14,
			updated_at = ?15, version = version + 1
		WHERE id = ?1 AND owner_id = ?2 AND version = ?16
		RETURNING `+dueColumns,
		due.ID, due.OwnerID, due.Title, formatDecimal(due.Amount), string(due.Category),
		formatDate(due.StartDate), string(due.RecurrenceUnit), due.RecurrenceMultiplier,
		due.FixedDayOfMonth, endKind, endDate, endCount, string(due.Status), due.Notes,
		formatTime(due.UpdatedAt), due.Version,
	)

	updated, err := scanDue(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update due: %w", err)
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM recurring_dues WHERE id = ? AND owner_id = ?)`,
		due.ID, due.OwnerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check due existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDueNotFound, due.ID)
	}
	return nil, fmt.Errorf("%w: due %s", domain.ErrVersionConflict, due.ID)
}

// DeleteDue removes a due and, through the foreign key, its instances.
func (s *Store) DeleteDue(ctx context.Context, ownerID, id string) error {
	if err := checkID("due", id); err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx,
		`DELETE FROM recurring_dues WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete due: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete due: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDueNotFound, id)
	}
	return nil
}

// InsertInstances inserts each row unless its due already has that date or
// belongs to another owner.
func (s *Store) InsertInstances(ctx context.Context, instances []*domain.DueInstance) (int64, error) {
	if len(instances) == 0 {
		return 0, nil
	}

	var inserted int64
	err := s.executeInTransaction(ctx, "insert_instances", func(txStore *Store) error {
		stmt, err := txStore.tx.PrepareContext(ctx, `
			INSERT INTO due_instances (id, recurring_due_id, owner_id, due_date, is_paid, paid_on, paid_amount, created_at)
			SELECT ?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8
			WHERE EXISTS (SELECT 1 FROM recurring_dues WHERE id = ?2 AND owner_id = ?3)
			ON CONFLICT (recurring_due_id, due_date) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, inst := range instances {
			if err := checkID("instance", inst.ID); err != nil {
				return err
			}
			if err := checkID("due", inst.RecurringDueID); err != nil {
				return err
			}
			res, err := stmt.ExecContext(ctx, inst.ID, inst.RecurringDueID, inst.OwnerID,
				formatDate(inst.DueDate), inst.IsPaid, formatTimePtr(inst.PaidOn),
				formatDecimal(inst.PaidAmount), formatTime(inst.CreatedAt))
			if err != nil {
				return fmt.Errorf("failed to insert instance %s: %w", inst.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to insert instance %s: %w", inst.ID, err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// DeleteFutureUnpaidInstances deletes unpaid instances of a due dated strictly after the given day.
func (s *Store) DeleteFutureUnpaidInstances(ctx context.Context, ownerID, dueID string, after civil.Date) (int64, error) {
	if err := checkID("due", dueID); err != nil {
		return 0, err
	}

	res, err := s.q.ExecContext(ctx, `
		DELETE FROM due_instances
		WHERE owner_id = ? AND recurring_due_id = ? AND due_date > ? AND is_paid = 0`,
		ownerID, dueID, formatDate(after))
	if err != nil {
		return 0, fmt.Errorf("failed to delete future instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete future instances: %w", err)
	}
	return n, nil
}

// ListInstances returns the owner's instances that match filter, ordered by due date.
func (s *Store) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.DueInstance, error) {
	var dueID sql.NullString
	if filter.DueID != nil {
		if err := checkID("due", *filter.DueID); err != nil {
			return nil, err
		}
		dueID = sql.NullString{String: *filter.DueID, Valid: true}
	}
	var paid sql.NullBool
	if filter.Paid != nil {
		paid = sql.NullBool{Bool: *filter.Paid, Valid: true}
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT `+instanceColumns+` FROM due_instances
		WHERE owner_id = ?1
		  AND (?2 IS NULL OR recurring_due_id = ?2)
		  AND (?3 IS NULL OR due_date >= ?3)
		  AND (?4 IS NULL OR due_date <= ?4)
		  AND (?5 IS NULL OR is_paid = ?5)
		ORDER BY due_date, recurring_due_id`,
		filter.OwnerID, dueID, formatDatePtr(filter.From), formatDatePtr(filter.To), paid)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	result := []*domain.DueInstance{}
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instance: %w", err)
		}
		result = append(result, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return result, nil
}

// FindInstance retrieves an instance owned by ownerID.
func (s *Store) FindInstance(ctx context.Context, ownerID, id string) (*domain.DueInstance, error) {
	if err := checkID("instance", id); err != nil {
		return nil, err
	}

	row := s.q.QueryRowContext(ctx,
		`SELECT `+instanceColumns+` FROM due_instances WHERE id = ? AND owner_id = ?`, id, ownerID)

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

// SetInstancePaid updates the paid state; a nil paidOn clears it.
func (s *Store) SetInstancePaid(ctx context.Context, ownerID, id string, paidOn *time.Time, paidAmount decimal.NullDecimal) (*domain.DueInstance, error) {
	if err := checkID("instance", id); err != nil {
		return nil, err
	}
	if paidOn == nil {
		paidAmount = decimal.NullDecimal{}
	}

	row := s.q.QueryRowContext(ctx, `
		UPDATE due_instances SET is_paid = ?, paid_on = ?, paid_amount = ?
		WHERE id = ? AND owner_id = ?
		RETURNING `+instanceColumns,
		paidOn != nil, formatTimePtr(paidOn), formatDecimal(paidAmount), id, ownerID)

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}
	return inst, nil
}

func scanDue(row rowScanner) (*domain.RecurringDue, error) {
	var (
		due       domain.RecurringDue
		amount    sql.NullString
		category  string
		startDate sql.NullString
		unit      string
		endKind   string
		endDate   sql.NullString
		endCount  sql.NullInt64
		status    string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&due.ID, &due.OwnerID, &due.Title, &amount, &category, &startDate,
		&unit, &due.RecurrenceMultiplier, &due.FixedDayOfMonth, &endKind, &endDate, &endCount,
		&status, &due.Notes, &createdAt, &updatedAt, &due.Version); err != nil {
		return nil, err
	}

	var err error
	if due.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if due.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	if due.EndPolicy, err = endPolicyFromColumns(endKind, endDate, endCount); err != nil {
		return nil, err
	}
	if due.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if due.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	due.Category = domain.Category(category)
	due.RecurrenceUnit = domain.RecurrenceUnit(unit)
	due.Status = domain.DueStatus(status)
	return &due, nil
}

func scanInstance(row rowScanner) (*domain.DueInstance, error) {
	var (
		inst       domain.DueInstance
		dueDate    sql.NullString
		paidOn     sql.NullString
		paidAmount sql.NullString
		createdAt  string
	)

	if err := row.Scan(&inst.ID, &inst.RecurringDueID, &inst.OwnerID, &dueDate, &inst.IsPaid,
		&paidOn, &paidAmount, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if inst.DueDate, err = parseDate(dueDate); err != nil {
		return nil, err
	}
	if inst.PaidOn, err = parseTimePtr(paidOn); err != nil {
		return nil, err
	}
	if inst.PaidAmount, err = parseDecimal(paidAmount); err != nil {
		return nil, err
	}
	if inst.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &inst, nil
}
