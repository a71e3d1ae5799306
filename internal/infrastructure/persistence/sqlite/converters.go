package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/badyetly/badyetly/internal/domain"
)

// timeLayout is fixed-width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func checkID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s %w", domain.ErrInvalidID, kind, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(d civil.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func formatDatePtr(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return formatDate(*d)
}

func parseDate(s sql.NullString) (civil.Date, error) {
	if !s.Valid {
		return civil.Date{}, nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return civil.Date{}, fmt.Errorf("failed to parse date %q: %w", s.String, err)
	}
	return d, nil
}

func formatDecimal(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.String(), Valid: true}
}

func parseDecimal(s sql.NullString) (decimal.NullDecimal, error) {
	if !s.Valid {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to parse amount %q: %w", s.String, err)
	}
	return decimal.NewNullDecimal(d), nil
}

func endPolicyColumns(p domain.EndPolicy) (string, sql.NullString, sql.NullInt64) {
	p = p.Normalize()
	switch p.Kind {
	case domain.EndAfterDate:
		return string(p.Kind), formatDate(p.Until), sql.NullInt64{}
	case domain.EndAfterOccurrences:
		return string(p.Kind), sql.NullString{}, sql.NullInt64{Int64: int64(p.Count), Valid: true}
	default:
		return string(domain.EndNever), sql.NullString{}, sql.NullInt64{}
	}
}

func endPolicyFromColumns(kind string, until sql.NullString, count sql.NullInt64) (domain.EndPolicy, error) {
	switch domain.EndKind(kind) {
	case domain.EndAfterDate:
		d, err := parseDate(until)
		if err != nil {
			return domain.EndPolicy{}, err
		}
		return domain.AfterDate(d), nil
	case domain.EndAfterOccurrences:
		return domain.AfterOccurrences(int(count.Int64)), nil
	default:
		return domain.Never(), nil
	}
}
