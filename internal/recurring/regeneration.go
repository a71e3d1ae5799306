package recurring

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/badyetly/badyetly/internal/domain"
)

// Plan is the outcome of regenerating an edited due's schedule.
type Plan struct {
	// Keep holds history: instances due on or before today, or already paid.
	Keep []*domain.DueInstance
	// Discard holds unpaid instances due after today. Storage removes them
	// with the filter (due, due date > Today, unpaid).
	Discard []*domain.DueInstance
	// Insert holds the new instances, all due after Today.
	Insert []*domain.DueInstance
	Today  civil.Date
}

// Partition splits existing instances into the immutable history and the
// replaceable future.
func Partition(existing []*domain.DueInstance, today civil.Date) (keep, discard []*domain.DueInstance) {
	for _, inst := range existing {
		if inst.IsPaid || !inst.DueDate.After(today) {
			keep = append(keep, inst)
		} else {
			discard = append(discard, inst)
		}
	}
	return keep, discard
}

// PlanRegeneration computes which instances of due survive an edit and which
// new ones replace the rest. due must already carry the updated definition.
//
// New instances start the day after today so they never overlap kept
// history, and a date still held by a kept instance (a future instance that
// was paid early) is not generated again.
func (g *Generator) PlanRegeneration(due *domain.RecurringDue, existing []*domain.DueInstance, today civil.Date) (*Plan, error) {
	keep, discard := Partition(existing, today)

	generated, err := g.Generate(due, today.AddDays(1))
	if err != nil {
		return nil, fmt.Errorf("failed to generate schedule for due %s: %w", due.ID, err)
	}

	held := make(map[civil.Date]struct{}, len(keep))
	for _, inst := range keep {
		held[inst.DueDate] = struct{}{}
	}

	insert := make([]*domain.DueInstance, 0, len(generated))
	for _, inst := range generated {
		if _, ok := held[inst.DueDate]; ok {
			continue
		}
		insert = append(insert, inst)
	}

	return &Plan{
		Keep:    keep,
		Discard: discard,
		Insert:  insert,
		Today:   today,
	}, nil
}
