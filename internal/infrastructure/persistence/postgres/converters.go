package postgres

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

// === pgtype Conversion Helpers ===

// parseID parses a UUID string, wrapping failures with domain.ErrInvalidID.
func parseID(kind, id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %s %w", domain.ErrInvalidID, kind, err)
	}
	return uuidToPgtype(parsed), nil
}

// uuidToPgtype converts google/uuid.UUID to pgtype.UUID.
func uuidToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgtypeToUUIDString converts pgtype.UUID to string (empty if invalid).
func pgtypeToUUIDString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// timePtrToPgtype converts *time.Time to pgtype.Timestamptz; nil stores NULL.
func timePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to a UTC time.Time (zero if invalid).
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// pgtypeToTimePtr converts pgtype.Timestamptz to a UTC *time.Time (nil if invalid).
func pgtypeToTimePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	utc := t.Time.UTC()
	return &utc
}

// dateToPgtype converts a civil.Date to pgtype.Date. The zero date stores NULL.
func dateToPgtype(d civil.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

// datePtrToPgtype converts an optional filter date; nil stores NULL.
func datePtrToPgtype(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{Valid: false}
	}
	return dateToPgtype(*d)
}

// pgtypeToDate converts pgtype.Date to civil.Date (zero if invalid).
func pgtypeToDate(d pgtype.Date) civil.Date {
	if !d.Valid {
		return civil.Date{}
	}
	return civil.DateOf(d.Time)
}

// decimalToPgtype renders an amount as text; queries cast it with ::text::numeric.
func decimalToPgtype(d decimal.NullDecimal) pgtype.Text {
	if !d.Valid {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: d.Decimal.String(), Valid: true}
}

// pgtypeToDecimal parses a numeric column selected as text.
func pgtypeToDecimal(t pgtype.Text) (decimal.NullDecimal, error) {
	if !t.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(t.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to parse amount %q: %w", t.String, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// endPolicyToPgtype splits an EndPolicy into its three columns.
func endPolicyToPgtype(p domain.EndPolicy) (string, pgtype.Date, pgtype.Int4) {
	p = p.Normalize()
	switch p.Kind {
	case domain.EndAfterDate:
		return string(p.Kind), dateToPgtype(p.Until), pgtype.Int4{}
	case domain.EndAfterOccurrences:
		return string(p.Kind), pgtype.Date{}, pgtype.Int4{Int32: int32(p.Count), Valid: true}
	default:
		return string(domain.EndNever), pgtype.Date{}, pgtype.Int4{}
	}
}

// pgtypeToEndPolicy rebuilds an EndPolicy from its columns.
func pgtypeToEndPolicy(kind string, until pgtype.Date, count pgtype.Int4) domain.EndPolicy {
	switch domain.EndKind(kind) {
	case domain.EndAfterDate:
		return domain.AfterDate(pgtypeToDate(until))
	case domain.EndAfterOccurrences:
		return domain.AfterOccurrences(int(count.Int32))
	default:
		return domain.Never()
	}
}
