package domain

import (
	"fmt"
	"slices"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Field names accepted in UpdateDueParams.UpdateMask.
const (
	FieldTitle                = "title"
	FieldAmount               = "amount"
	FieldCategory             = "category"
	FieldStartDate            = "start_date"
	FieldRecurrenceUnit       = "recurrence_unit"
	FieldRecurrenceMultiplier = "recurrence_multiplier"
	FieldFixedDayOfMonth      = "fixed_day_of_month"
	FieldEndPolicy            = "end_policy"
	FieldStatus               = "status"
	FieldNotes                = "notes"
)

// ScheduleFields are the mask fields whose change requires regenerating
// future instances.
var ScheduleFields = []string{
	FieldStartDate,
	FieldRecurrenceUnit,
	FieldRecurrenceMultiplier,
	FieldFixedDayOfMonth,
	FieldEndPolicy,
}

var updateDueValidFields = map[string]struct{}{
	FieldTitle:                {},
	FieldAmount:               {},
	FieldCategory:             {},
	FieldStartDate:            {},
	FieldRecurrenceUnit:       {},
	FieldRecurrenceMultiplier: {},
	FieldFixedDayOfMonth:      {},
	FieldEndPolicy:            {},
	FieldStatus:               {},
	FieldNotes:                {},
}

// UpdateDueParams carries a masked update of a RecurringDue.
// Only fields named in UpdateMask are applied. A nil Amount in the mask
// clears the amount; a nil FixedDayOfMonth in the mask removes the fixed day.
type UpdateDueParams struct {
	OwnerID string
	DueID   string

	UpdateMask []string

	Title                *string
	Amount               *decimal.Decimal
	Category             *Category
	StartDate            *civil.Date
	RecurrenceUnit       *RecurrenceUnit
	RecurrenceMultiplier *int
	FixedDayOfMonth      *int
	EndPolicy            *EndPolicy
	Status               *DueStatus
	Notes                *string

	// ExpectedVersion enables optimistic locking when non-nil.
	ExpectedVersion *int
}

// Validate checks that UpdateMask contains only known fields and that
// required fields have non-nil values when included in the mask.
func (p UpdateDueParams) Validate() error {
	if len(p.UpdateMask) == 0 {
		return ErrEmptyUpdateMask
	}

	maskSet := make(map[string]bool, len(p.UpdateMask))
	for _, field := range p.UpdateMask {
		if _, ok := updateDueValidFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		maskSet[field] = true
	}

	if maskSet[FieldTitle] && p.Title == nil {
		return ErrTitleRequired
	}
	if maskSet[FieldCategory] && p.Category == nil {
		return fmt.Errorf("%w: category is required", ErrInvalidCategory)
	}
	if maskSet[FieldStartDate] && p.StartDate == nil {
		return fmt.Errorf("%w: start date is required", ErrInvalidRecurrence)
	}
	if maskSet[FieldRecurrenceUnit] && p.RecurrenceUnit == nil {
		return fmt.Errorf("%w: recurrence unit is required", ErrInvalidRecurrence)
	}
	if maskSet[FieldRecurrenceMultiplier] && p.RecurrenceMultiplier == nil {
		return fmt.Errorf("%w: recurrence multiplier is required", ErrInvalidRecurrence)
	}
	if maskSet[FieldEndPolicy] && p.EndPolicy == nil {
		return fmt.Errorf("%w: end policy is required", ErrInvalidRecurrence)
	}
	if maskSet[FieldStatus] && p.Status == nil {
		return fmt.Errorf("%w: status is required", ErrInvalidStatus)
	}

	return nil
}

// ChangesSchedule reports whether the mask touches a recurrence field.
func (p UpdateDueParams) ChangesSchedule() bool {
	for _, field := range p.UpdateMask {
		if slices.Contains(ScheduleFields, field) {
			return true
		}
	}
	return false
}

// Apply copies the masked fields onto due. It does not validate the result.
func (p UpdateDueParams) Apply(due *RecurringDue) {
	for _, field := range p.UpdateMask {
		switch field {
		case FieldTitle:
			due.Title = *p.Title
		case FieldAmount:
			if p.Amount == nil {
				due.Amount = decimal.NullDecimal{}
			} else {
				due.Amount = decimal.NewNullDecimal(*p.Amount)
			}
		case FieldCategory:
			due.Category = *p.Category
		case FieldStartDate:
			due.StartDate = *p.StartDate
		case FieldRecurrenceUnit:
			due.RecurrenceUnit = *p.RecurrenceUnit
		case FieldRecurrenceMultiplier:
			due.RecurrenceMultiplier = *p.RecurrenceMultiplier
		case FieldFixedDayOfMonth:
			if p.FixedDayOfMonth == nil {
				due.FixedDayOfMonth = 0
			} else {
				due.FixedDayOfMonth = *p.FixedDayOfMonth
			}
		case FieldEndPolicy:
			due.EndPolicy = p.EndPolicy.Normalize()
		case FieldStatus:
			due.Status = *p.Status
		case FieldNotes:
			if p.Notes == nil {
				due.Notes = ""
			} else {
				due.Notes = *p.Notes
			}
		}
	}
}
