package recurring

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/badyetly/badyetly/internal/domain"
)

// Draft is the in-progress schedule of a due as typed into a form: raw
// strings, possibly incomplete. It is a value; the With methods return
// updated copies and recomputation is explicit through Definition or
// PreviewDraft.
type Draft struct {
	StartDate       string
	Unit            string
	Multiplier      string
	FixedDayOfMonth string
	EndKind         string
	EndDate         string
	Occurrences     string
}

// NewDraft returns the form defaults: monthly, every 1, never ending.
func NewDraft() Draft {
	return Draft{
		Unit:       string(domain.UnitMonthly),
		Multiplier: "1",
		EndKind:    string(domain.EndNever),
	}
}

func (d Draft) WithStartDate(v string) Draft       { d.StartDate = v; return d }
func (d Draft) WithUnit(v string) Draft            { d.Unit = v; return d }
func (d Draft) WithMultiplier(v string) Draft      { d.Multiplier = v; return d }
func (d Draft) WithFixedDayOfMonth(v string) Draft { d.FixedDayOfMonth = v; return d }
func (d Draft) WithEndKind(v string) Draft         { d.EndKind = v; return d }
func (d Draft) WithEndDate(v string) Draft         { d.EndDate = v; return d }
func (d Draft) WithOccurrences(v string) Draft     { d.Occurrences = v; return d }

// Definition coerces the draft into a schedule definition. Malformed dates
// and fixed days follow policy; everything else that cannot be coerced is
// rejected with an error wrapping domain.ErrInvalidRecurrence.
func (d Draft) Definition(today civil.Date, policy InputPolicy) (Definition, error) {
	start, err := policy.ParseDate("start_date", d.StartDate, today)
	if err != nil {
		return Definition{}, err
	}
	if start.IsZero() {
		return Definition{}, fmt.Errorf("%w: start date is required", domain.ErrInvalidRecurrence)
	}

	unit, err := domain.NewRecurrenceUnit(d.Unit)
	if err != nil {
		return Definition{}, err
	}

	multiplier, err := positiveInt(d.Multiplier)
	if err != nil {
		return Definition{}, fmt.Errorf("%w: recurrence multiplier %q: %v", domain.ErrInvalidRecurrence, d.Multiplier, err)
	}

	fixedDay, err := policy.FixedDay("fixed_day_of_month", d.FixedDayOfMonth)
	if err != nil {
		return Definition{}, err
	}
	if fixedDay > 0 && !unit.SupportsFixedDay() {
		return Definition{}, fmt.Errorf("%w: %w: got %s", domain.ErrInvalidRecurrence, domain.ErrFixedDayUnit, unit)
	}

	end, err := d.endPolicy(today, policy)
	if err != nil {
		return Definition{}, err
	}

	def := Definition{
		StartDate:       start,
		Unit:            unit,
		Multiplier:      multiplier,
		FixedDayOfMonth: fixedDay,
		End:             end,
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func (d Draft) endPolicy(today civil.Date, policy InputPolicy) (domain.EndPolicy, error) {
	kind, err := domain.NewEndKind(d.EndKind)
	if err != nil {
		return domain.EndPolicy{}, err
	}

	switch kind {
	case domain.EndAfterDate:
		until, err := policy.ParseDate("end_date", d.EndDate, today)
		if err != nil {
			return domain.EndPolicy{}, err
		}
		if until.IsZero() {
			return domain.EndPolicy{}, fmt.Errorf("%w: end date is required", domain.ErrInvalidRecurrence)
		}
		return domain.AfterDate(until), nil
	case domain.EndAfterOccurrences:
		count, err := positiveInt(d.Occurrences)
		if err != nil {
			return domain.EndPolicy{}, fmt.Errorf("%w: occurrences %q: %v", domain.ErrInvalidRecurrence, d.Occurrences, err)
		}
		return domain.AfterOccurrences(count), nil
	default:
		return domain.Never(), nil
	}
}
