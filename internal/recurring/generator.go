package recurring

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/badyetly/badyetly/internal/domain"
)

// Definition is the part of a recurring due that determines its schedule.
type Definition struct {
	StartDate       civil.Date
	Unit            domain.RecurrenceUnit
	Multiplier      int
	FixedDayOfMonth int // 0 = none
	End             domain.EndPolicy
}

// DefinitionOf extracts the schedule fields of a due.
func DefinitionOf(due *domain.RecurringDue) Definition {
	return Definition{
		StartDate:       due.StartDate,
		Unit:            due.RecurrenceUnit,
		Multiplier:      due.RecurrenceMultiplier,
		FixedDayOfMonth: due.FixedDayOfMonth,
		End:             due.EndPolicy.Normalize(),
	}
}

// Validate rejects definitions that cannot produce a schedule. Every error
// wraps domain.ErrInvalidRecurrence.
func (d Definition) Validate() error {
	if d.Multiplier <= 0 {
		return fmt.Errorf("%w: multiplier must be at least 1, got %d", domain.ErrInvalidRecurrence, d.Multiplier)
	}
	if d.Multiplier > MaxMultiplier {
		return fmt.Errorf("%w: multiplier must be at most %d, got %d", domain.ErrInvalidRecurrence, MaxMultiplier, d.Multiplier)
	}
	if !d.Unit.IsValid() {
		return fmt.Errorf("%w: unknown recurrence unit %q", domain.ErrInvalidRecurrence, d.Unit)
	}
	if d.StartDate.IsZero() || !d.StartDate.IsValid() {
		return fmt.Errorf("%w: start date is required", domain.ErrInvalidRecurrence)
	}
	if d.StartDate.Year < 1 || d.StartDate.Year > MaxYear {
		return fmt.Errorf("%w: start date %s is out of range", domain.ErrInvalidRecurrence, d.StartDate)
	}
	if d.FixedDayOfMonth < 0 || d.FixedDayOfMonth > 31 {
		return fmt.Errorf("%w: %w: %d", domain.ErrInvalidRecurrence, domain.ErrInvalidFixedDay, d.FixedDayOfMonth)
	}
	return d.End.Validate()
}

// anchorDay is the day-of-month every candidate is clamped to, or 0 for
// week-based units.
func (d Definition) anchorDay() int {
	switch {
	case d.Unit.SupportsFixedDay() && d.FixedDayOfMonth > 0:
		return d.FixedDayOfMonth
	case d.Unit.SupportsFixedDay(), d.Unit == domain.UnitAnnually:
		return d.StartDate.Day
	default:
		return 0
	}
}

// Options configures a Generator.
type Options struct {
	// InstanceCap bounds the number of dates one run emits.
	// Zero or negative uses DefaultInstanceCap.
	InstanceCap int

	// NewID returns identifiers for generated instances. Defaults to UUIDv7.
	NewID func() (string, error)
}

// Generator expands definitions into dated instances.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	cap   int
	newID func() (string, error)
}

// NewGenerator creates a Generator, applying defaults for unset options.
func NewGenerator(opts Options) *Generator {
	if opts.InstanceCap <= 0 {
		opts.InstanceCap = DefaultInstanceCap
	}
	if opts.NewID == nil {
		opts.NewID = newUUIDv7
	}
	return &Generator{
		cap:   opts.InstanceCap,
		newID: opts.NewID,
	}
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Schedule returns the due dates of def on or after from, in strictly
// increasing order, bounded by the end policy and the instance cap.
//
// The cursor always steps from the start date in whole units and each
// candidate is clamped to the anchor day afresh, so a short month never
// shifts later occurrences. An AfterOccurrences limit counts from from:
// regenerating from tomorrow yields the full count again. Generation ends at
// MaxYear whatever the end policy.
func (g *Generator) Schedule(def Definition, from civil.Date) ([]civil.Date, error) {
	return g.schedule(def, from, g.cap)
}

func (g *Generator) schedule(def Definition, from civil.Date, limit int) ([]civil.Date, error) {
	def.End = def.End.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}

	stop := Termination(def.End)
	anchor := def.anchorDay()

	var dates []civil.Date
	occurrences := 0
	previous := def.StartDate
	for step := 0; len(dates) < limit; step++ {
		cursor := AddUnits(def.StartDate, def.Unit, step*def.Multiplier)
		if cursor.Year > MaxYear || (step > 0 && !cursor.After(previous)) {
			break
		}
		previous = cursor

		candidate := cursor
		if anchor > 0 {
			candidate = ClampDayOfMonth(cursor, anchor)
		}

		// A fixed day earlier than the start day falls before the series begins.
		if candidate.Before(def.StartDate) {
			continue
		}
		if stop(candidate, occurrences) {
			break
		}
		if candidate.Before(from) {
			continue
		}
		occurrences++

		if n := len(dates); n > 0 && !candidate.After(dates[n-1]) {
			continue
		}
		dates = append(dates, candidate)
	}

	return dates, nil
}

// Generate builds unpaid instances of due on or after from. CreatedAt is left
// for the caller to stamp.
func (g *Generator) Generate(due *domain.RecurringDue, from civil.Date) ([]*domain.DueInstance, error) {
	dates, err := g.Schedule(DefinitionOf(due), from)
	if err != nil {
		return nil, err
	}
	return g.instances(due, dates)
}

func (g *Generator) instances(due *domain.RecurringDue, dates []civil.Date) ([]*domain.DueInstance, error) {
	instances := make([]*domain.DueInstance, 0, len(dates))
	for _, date := range dates {
		id, err := g.newID()
		if err != nil {
			return nil, fmt.Errorf("failed to generate instance ID for %s: %w", date, err)
		}
		instances = append(instances, &domain.DueInstance{
			ID:             id,
			RecurringDueID: due.ID,
			OwnerID:        due.OwnerID,
			DueDate:        date,
		})
	}
	return instances, nil
}
