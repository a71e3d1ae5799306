package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// MaxTitleLength is the maximum length of a due title.
const MaxTitleLength = 255

// NewTitle trims and validates a due title.
func NewTitle(s string) (string, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return "", ErrTitleRequired
	}

	if len(s) > MaxTitleLength {
		return "", ErrTitleTooLong
	}

	return s, nil
}

// NewCategory validates and creates a Category.
func NewCategory(s string) (Category, error) {
	category := Category(strings.ToLower(strings.TrimSpace(s)))

	switch category {
	case CategoryUtilities, CategoryLoan, CategorySubscription, CategoryPhone,
		CategoryInternet, CategoryInsurance, CategorySavings, CategoryInvestment,
		CategoryCards, CategoryOther:
		return category, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidCategory, s)
	}
}

// IsVariableAmount reports whether dues of this category may leave the
// amount empty because it differs from one period to the next.
func (c Category) IsVariableAmount() bool {
	switch c {
	case CategoryUtilities, CategoryPhone, CategoryInternet, CategoryCards:
		return true
	default:
		return false
	}
}

// NewRecurrenceUnit validates and creates a RecurrenceUnit.
func NewRecurrenceUnit(s string) (RecurrenceUnit, error) {
	unit := RecurrenceUnit(strings.ToLower(strings.TrimSpace(s)))

	if !unit.IsValid() {
		return "", fmt.Errorf("%w: unknown recurrence unit %q", ErrInvalidRecurrence, s)
	}
	return unit, nil
}

// IsValid reports whether u is one of the known units.
func (u RecurrenceUnit) IsValid() bool {
	switch u {
	case UnitWeekly, UnitBiweekly, UnitMonthly, UnitQuarterly, UnitAnnually:
		return true
	default:
		return false
	}
}

// SupportsFixedDay reports whether a fixed day-of-month applies to the unit.
func (u RecurrenceUnit) SupportsFixedDay() bool {
	return u == UnitMonthly || u == UnitQuarterly
}

// NewDueStatus validates and creates a DueStatus. Empty input means active.
func NewDueStatus(s string) (DueStatus, error) {
	if s == "" {
		return DueStatusActive, nil
	}

	status := DueStatus(strings.ToLower(s))

	switch status {
	case DueStatusActive, DueStatusPaused, DueStatusCanceled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidStatus, s)
	}
}

// ValidateAmount enforces the amount rule: fixed-amount categories need a
// positive amount, variable-amount categories may omit it, and no amount is
// ever negative.
func ValidateAmount(category Category, amount decimal.NullDecimal) error {
	if !amount.Valid {
		if category.IsVariableAmount() {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrAmountRequired, category)
	}

	if amount.Decimal.IsNegative() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.Decimal)
	}
	if amount.Decimal.IsZero() && !category.IsVariableAmount() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount.Decimal)
	}
	return nil
}

// EndPolicy is the termination rule of a recurrence.
//
// Exactly one of the payload fields is meaningful, selected by Kind:
//   - EndNever: no payload, generation is bounded by the instance cap
//   - EndAfterDate: Until is the last date an occurrence may fall on
//   - EndAfterOccurrences: Count is the total number of occurrences
type EndPolicy struct {
	Kind  EndKind
	Until civil.Date
	Count int
}

// Never returns an open-ended policy.
func Never() EndPolicy {
	return EndPolicy{Kind: EndNever}
}

// AfterDate returns a policy that stops after the given date.
func AfterDate(until civil.Date) EndPolicy {
	return EndPolicy{Kind: EndAfterDate, Until: until}
}

// AfterOccurrences returns a policy that stops after count occurrences.
func AfterOccurrences(count int) EndPolicy {
	return EndPolicy{Kind: EndAfterOccurrences, Count: count}
}

// Validate checks that the payload matches the kind. The zero EndPolicy is
// treated as Never.
func (p EndPolicy) Validate() error {
	switch p.Kind {
	case EndNever, "":
		return nil
	case EndAfterDate:
		if !p.Until.IsValid() {
			return fmt.Errorf("%w: end date %q is not a valid date", ErrInvalidRecurrence, p.Until)
		}
		return nil
	case EndAfterOccurrences:
		if p.Count <= 0 {
			return fmt.Errorf("%w: occurrence count must be positive, got %d", ErrInvalidRecurrence, p.Count)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown end policy %q", ErrInvalidRecurrence, p.Kind)
	}
}

// Normalize maps the zero policy to Never.
func (p EndPolicy) Normalize() EndPolicy {
	if p.Kind == "" {
		return Never()
	}
	return p
}

// NewEndKind validates and creates an EndKind. Empty input means never.
func NewEndKind(s string) (EndKind, error) {
	if s == "" {
		return EndNever, nil
	}

	kind := EndKind(strings.ToLower(s))

	switch kind {
	case EndNever, EndAfterDate, EndAfterOccurrences:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown end policy %q", ErrInvalidRecurrence, s)
	}
}
