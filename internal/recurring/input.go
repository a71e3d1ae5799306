package recurring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/badyetly/badyetly/internal/domain"
)

// DegradedInput describes a malformed value that was replaced by a safe
// default instead of aborting generation.
type DegradedInput struct {
	Field      string
	Value      string
	Substitute string
	Reason     error
}

// InputPolicy decides what happens to malformed raw form values.
//
// By default a malformed date becomes today and a malformed fixed day becomes
// "no fixed day"; each substitution is reported to OnDegraded. With Strict set
// the same values are rejected with domain.ErrInvalidRecurrence.
type InputPolicy struct {
	Strict     bool
	OnDegraded func(DegradedInput)
}

func (p InputPolicy) degrade(d DegradedInput) {
	if p.OnDegraded != nil {
		p.OnDegraded(d)
	}
}

// ParseDate parses a calendar date from a form value. It accepts YYYY-MM-DD
// and RFC 3339 timestamps (the date part is kept). Empty input returns the
// zero date and no error; callers decide whether the field is required.
func (p InputPolicy) ParseDate(field, raw string, today civil.Date) (civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return civil.Date{}, nil
	}

	date, err := parseCalendarDate(raw)
	if err == nil {
		return date, nil
	}

	if p.Strict {
		return civil.Date{}, fmt.Errorf("%w: %s %q is not a date", domain.ErrInvalidRecurrence, field, raw)
	}

	p.degrade(DegradedInput{
		Field:      field,
		Value:      raw,
		Substitute: today.String(),
		Reason:     err,
	})
	return today, nil
}

func parseCalendarDate(raw string) (civil.Date, error) {
	date, err := civil.ParseDate(raw)
	if err == nil {
		return date, nil
	}
	if ts, tsErr := time.Parse(time.RFC3339, raw); tsErr == nil {
		return civil.DateOf(ts), nil
	}
	return civil.Date{}, err
}

// FixedDay parses an optional fixed day-of-month. Empty input means none.
func (p InputPolicy) FixedDay(field, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	day, err := strconv.Atoi(raw)
	if err == nil && (day < 1 || day > 31) {
		err = domain.ErrInvalidFixedDay
	}
	if err == nil {
		return day, nil
	}

	if p.Strict {
		return 0, fmt.Errorf("%w: %w: %q", domain.ErrInvalidRecurrence, domain.ErrInvalidFixedDay, raw)
	}

	p.degrade(DegradedInput{
		Field:  field,
		Value:  raw,
		Reason: err,
	})
	return 0, nil
}

// errMissing is returned by positiveInt for empty input.
var errMissing = errors.New("value is required")

func positiveInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errMissing
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1, got %d", n)
	}
	return n, nil
}
