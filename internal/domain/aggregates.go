package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// RecurringDue is an aggregate root describing a repeating bill.
//
// Instances are NOT included in this aggregate. They are generated from the
// recurrence fields and fetched separately, scoped by OwnerID.
type RecurringDue struct {
	ID      string
	OwnerID string
	Title   string

	// Amount is null only for variable-amount categories.
	Amount   decimal.NullDecimal
	Category Category

	// Recurrence definition
	StartDate            civil.Date
	RecurrenceUnit       RecurrenceUnit
	RecurrenceMultiplier int
	FixedDayOfMonth      int // 0 = use the start date's day
	EndPolicy            EndPolicy

	Status DueStatus
	Notes  string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Optimistic locking version for concurrent update protection
	Version int
}

// Etag returns the entity tag for this due.
func (d *RecurringDue) Etag() string {
	return fmt.Sprintf("%d", d.Version)
}

// Validate checks the fields that do not depend on the schedule core.
func (d *RecurringDue) Validate() error {
	if d.OwnerID == "" {
		return ErrOwnerRequired
	}
	title, err := NewTitle(d.Title)
	if err != nil {
		return err
	}
	d.Title = title

	if _, err := NewCategory(string(d.Category)); err != nil {
		return err
	}
	if err := ValidateAmount(d.Category, d.Amount); err != nil {
		return err
	}
	if _, err := NewDueStatus(string(d.Status)); err != nil {
		return err
	}
	if d.FixedDayOfMonth != 0 && (d.FixedDayOfMonth < 1 || d.FixedDayOfMonth > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidFixedDay, d.FixedDayOfMonth)
	}
	return nil
}

// DueInstance is one dated occurrence generated from a RecurringDue.
type DueInstance struct {
	ID             string
	RecurringDueID string
	OwnerID        string
	DueDate        civil.Date

	// IsPaid and PaidOn change together: PaidOn is non-nil iff IsPaid.
	IsPaid     bool
	PaidOn     *time.Time
	PaidAmount decimal.NullDecimal

	CreatedAt time.Time
}

// EffectiveAmount returns the captured paid amount, falling back to the
// due's amount when none was recorded.
func (i *DueInstance) EffectiveAmount(due *RecurringDue) decimal.NullDecimal {
	if i.PaidAmount.Valid {
		return i.PaidAmount
	}
	if due == nil {
		return decimal.NullDecimal{}
	}
	return due.Amount
}

// MarkPaid sets the paid state. paidOn is normalized to UTC.
func (i *DueInstance) MarkPaid(paidOn time.Time, amount decimal.NullDecimal) {
	t := paidOn.UTC()
	i.IsPaid = true
	i.PaidOn = &t
	i.PaidAmount = amount
}

// MarkUnpaid clears the paid state and any captured amount.
func (i *DueInstance) MarkUnpaid() {
	i.IsPaid = false
	i.PaidOn = nil
	i.PaidAmount = decimal.NullDecimal{}
}

// APIKey is an authentication credential bound to one owner.
type APIKey struct {
	ID             string
	OwnerID        string
	KeyType        string
	Service        string
	Version        string
	ShortToken     string
	LongSecretHash string
	Name           string
	IsActive       bool
	CreatedAt      time.Time
	LastUsedAt     *time.Time
	ExpiresAt      *time.Time
}

// InstanceFilter selects instances for listing. OwnerID is always required;
// nil fields apply no filter.
type InstanceFilter struct {
	OwnerID string
	DueID   *string
	From    *civil.Date // inclusive
	To      *civil.Date // inclusive
	Paid    *bool
}
