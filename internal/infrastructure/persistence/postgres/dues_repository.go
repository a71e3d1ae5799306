package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

const dueColumns = `id, owner_id, title, amount::text, category, start_date,
	recurrence_unit, recurrence_multiplier, fixed_day_of_month,
	end_kind, end_date, end_count, status, notes, created_at, updated_at, version`

const instanceColumns = `id, recurring_due_id, owner_id, due_date, is_paid, paid_on,
	paid_amount::text, created_at`

// === Due Operations ===

// CreateDue inserts a new due at version 1.
func (s *Store) CreateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	id, err := parseID("due", due.ID)
	if err != nil {
		return nil, err
	}
	endKind, endDate, endCount := endPolicyToPgtype(due.EndPolicy)

	row := s.db.QueryRow(ctx, `
		INSERT INTO recurring_dues (
			id, owner_id, title, amount, category, start_date,
			recurrence_unit, recurrence_multiplier, fixed_day_of_month,
			end_kind, end_date, end_count, status, notes, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1)
		RETURNING `+dueColumns,
		id, due.OwnerID, due.Title, decimalToPgtype(due.Amount), string(due.Category),
		dateToPgtype(due.StartDate), string(due.RecurrenceUnit), due.RecurrenceMultiplier,
		due.FixedDayOfMonth, endKind, endDate, endCount, string(due.Status), due.Notes,
		timeToPgtype(due.CreatedAt), timeToPgtype(due.UpdatedAt),
	)

	created, err := scanDue(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create due: %w", err)
	}
	return created, nil
}

// FindDue retrieves a due owned by ownerID.
func (s *Store) FindDue(ctx context.Context, ownerID, id string) (*domain.RecurringDue, error) {
	dueID, err := parseID("due", id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+dueColumns+` FROM recurring_dues WHERE id = $1 AND owner_id = $2`,
		dueID, ownerID)

	due, err := scanDue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDueNotFound, id)
		}
		return nil, fmt.Errorf("failed to get due: %w", err)
	}
	return due, nil
}

// ListDues returns every due of ownerID, oldest first.
func (s *Store) ListDues(ctx context.Context, ownerID string) ([]*domain.RecurringDue, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+dueColumns+` FROM recurring_dues WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID)
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

// UpdateDue writes every mutable field and bumps the version.
// The write only applies when the stored version still equals due.Version.
func (s *Store) UpdateDue(ctx context.Context, due *domain.RecurringDue) (*domain.RecurringDue, error) {
	id, err := parseID("due", due.ID)
	if err != nil {
		return nil, err
	}
	endKind, endDate, endCount := endPolicyToPgtype(due.EndPolicy)

	row := s.db.QueryRow(ctx, `
		UPDATE recurring_dues SET
			title = $3, amount = $4::text::numeric, category = $5, start_date = $6,
			recurrence_unit = $7, recurrence_multiplier = $8, fixed_day_of_month = $9,
			end_kind = $10, end_date = $11, end_count = $12, status = $13, notes = $14,
			updated_at = $15, version = version + 1
		WHERE id = $1 AND owner_id = $2 AND version = $16
		RETURNING `+dueColumns,
		id, due.OwnerID, due.Title, decimalToPgtype(due.Amount), string(due.Category),
		dateToPgtype(due.StartDate), string(due.RecurrenceUnit), due.RecurrenceMultiplier,
		due.FixedDayOfMonth, endKind, endDate, endCount, string(due.Status), due.Notes,
		timeToPgtype(due.UpdatedAt), due.Version,
	)

	updated, err := scanDue(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update due: %w", err)
	}

	// No row matched: either the due is gone or its version moved on.
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM recurring_dues WHERE id = $1 AND owner_id = $2)`,
		id, due.OwnerID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check due existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDueNotFound, due.ID)
	}
	return nil, fmt.Errorf("%w: due %s", domain.ErrVersionConflict, due.ID)
}

// DeleteDue removes a due; its instances go with it through ON DELETE CASCADE.
func (s *Store) DeleteDue(ctx context.Context, ownerID, id string) error {
	dueID, err := parseID("due", id)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM recurring_dues WHERE id = $1 AND owner_id = $2`, dueID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete due: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDueNotFound, id)
	}
	return nil
}

// === Instance Operations ===

// InsertInstances inserts the batch in one round trip. Rows whose
// (recurring_due_id, due_date) already exists are skipped, as are rows whose
// due does not belong to the instance's owner.
func (s *Store) InsertInstances(ctx context.Context, instances []*domain.DueInstance) (int64, error) {
	if len(instances) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, inst := range instances {
		id, err := parseID("instance", inst.ID)
		if err != nil {
			return 0, err
		}
		dueID, err := parseID("due", inst.RecurringDueID)
		if err != nil {
			return 0, err
		}
		batch.Queue(`
			INSERT INTO due_instances (id, recurring_due_id, owner_id, due_date, is_paid, paid_on, paid_amount, created_at)
			SELECT $1::uuid, $2::uuid, $3::text, $4::date, $5::boolean, $6::timestamptz, $7::text::numeric, $8::timestamptz
			WHERE EXISTS (SELECT 1 FROM recurring_dues WHERE id = $2 AND owner_id = $3)
			ON CONFLICT (recurring_due_id, due_date) DO NOTHING`,
			id, dueID, inst.OwnerID, dateToPgtype(inst.DueDate), inst.IsPaid,
			timePtrToPgtype(inst.PaidOn), decimalToPgtype(inst.PaidAmount), timeToPgtype(inst.CreatedAt),
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	var inserted int64
	for _, inst := range instances {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert instance %s: %w", inst.ID, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// DeleteFutureUnpaidInstances deletes unpaid instances of a due dated strictly after the given day.
func (s *Store) DeleteFutureUnpaidInstances(ctx context.Context, ownerID, dueID string, after civil.Date) (int64, error) {
	id, err := parseID("due", dueID)
	if err != nil {
		return 0, err
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM due_instances
		WHERE owner_id = $1 AND recurring_due_id = $2 AND due_date > $3 AND NOT is_paid`,
		ownerID, id, dateToPgtype(after))
	if err != nil {
		return 0, fmt.Errorf("failed to delete future instances: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListInstances returns the owner's instances that match filter, ordered by due date.
// NULL parameters disable their predicate.
func (s *Store) ListInstances(ctx context.Context, filter domain.InstanceFilter) ([]*domain.DueInstance, error) {
	var dueID pgtype.UUID
	if filter.DueID != nil {
		id, err := parseID("due", *filter.DueID)
		if err != nil {
			return nil, err
		}
		dueID = id
	}
	var paid pgtype.Bool
	if filter.Paid != nil {
		paid = pgtype.Bool{Bool: *filter.Paid, Valid: true}
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+instanceColumns+` FROM due_instances
		WHERE owner_id = $1
		  AND ($2::uuid IS NULL OR recurring_due_id = $2)
		  AND ($3::date IS NULL OR due_date >= $3)
		  AND ($4::date IS NULL OR due_date <= $4)
		  AND ($5::boolean IS NULL OR is_paid = $5)
		ORDER BY due_date, recurring_due_id`,
		filter.OwnerID, dueID, datePtrToPgtype(filter.From), datePtrToPgtype(filter.To), paid)
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
	instanceID, err := parseID("instance", id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+instanceColumns+` FROM due_instances WHERE id = $1 AND owner_id = $2`,
		instanceID, ownerID)

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}
	return inst, nil
}

// SetInstancePaid updates the paid state in one statement. A nil paidOn
// marks the instance unpaid and clears the captured amount.
func (s *Store) SetInstancePaid(ctx context.Context, ownerID, id string, paidOn *time.Time, paidAmount decimal.NullDecimal) (*domain.DueInstance, error) {
	instanceID, err := parseID("instance", id)
	if err != nil {
		return nil, err
	}
	if paidOn == nil {
		paidAmount = decimal.NullDecimal{}
	}

	row := s.db.QueryRow(ctx, `
		UPDATE due_instances SET is_paid = $3, paid_on = $4, paid_amount = $5::text::numeric
		WHERE id = $1 AND owner_id = $2
		RETURNING `+instanceColumns,
		instanceID, ownerID, paidOn != nil, timePtrToPgtype(paidOn), decimalToPgtype(paidAmount))

	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("failed to update instance: %w", err)
	}
	return inst, nil
}

// === Row Scanning ===

func scanDue(row pgx.Row) (*domain.RecurringDue, error) {
	var (
		id         pgtype.UUID
		amount     pgtype.Text
		category   string
		startDate  pgtype.Date
		unit       string
		fixedDay   int16
		endKind    string
		endDate    pgtype.Date
		endCount   pgtype.Int4
		status     string
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
		multiplier int32
		version    int32
		due        domain.RecurringDue
	)

	if err := row.Scan(&id, &due.OwnerID, &due.Title, &amount, &category, &startDate,
		&unit, &multiplier, &fixedDay, &endKind, &endDate, &endCount,
		&status, &due.Notes, &createdAt, &updatedAt, &version); err != nil {
		return nil, err
	}

	parsed, err := pgtypeToDecimal(amount)
	if err != nil {
		return nil, err
	}

	due.ID = pgtypeToUUIDString(id)
	due.Amount = parsed
	due.Category = domain.Category(category)
	due.StartDate = pgtypeToDate(startDate)
	due.RecurrenceUnit = domain.RecurrenceUnit(unit)
	due.RecurrenceMultiplier = int(multiplier)
	due.FixedDayOfMonth = int(fixedDay)
	due.EndPolicy = pgtypeToEndPolicy(endKind, endDate, endCount)
	due.Status = domain.DueStatus(status)
	due.CreatedAt = pgtypeToTime(createdAt)
	due.UpdatedAt = pgtypeToTime(updatedAt)
	due.Version = int(version)
	return &due, nil
}

func scanInstance(row pgx.Row) (*domain.DueInstance, error) {
	var (
		id         pgtype.UUID
		dueID      pgtype.UUID
		dueDate    pgtype.Date
		paidOn     pgtype.Timestamptz
		paidAmount pgtype.Text
		createdAt  pgtype.Timestamptz
		inst       domain.DueInstance
	)

	if err := row.Scan(&id, &dueID, &inst.OwnerID, &dueDate, &inst.IsPaid, &paidOn,
		&paidAmount, &createdAt); err != nil {
		return nil, err
	}

	amount, err := pgtypeToDecimal(paidAmount)
	if err != nil {
		return nil, err
	}

	inst.ID = pgtypeToUUIDString(id)
	inst.RecurringDueID = pgtypeToUUIDString(dueID)
	inst.DueDate = pgtypeToDate(dueDate)
	inst.PaidOn = pgtypeToTimePtr(paidOn)
	inst.PaidAmount = amount
	inst.CreatedAt = pgtypeToTime(createdAt)
	return &inst, nil
}
