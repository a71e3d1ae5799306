package recurring

import (
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/domain"
)

func monthlyInstances(dueID string, start civil.Date, n int) []*domain.DueInstance {
	out := make([]*domain.DueInstance, n)
	for i := range n {
		out[i] = &domain.DueInstance{
			ID:             fmt.Sprintf("old-%d", i+1),
			RecurringDueID: dueID,
			OwnerID:        "owner-1",
			DueDate:        AddUnits(start, domain.UnitMonthly, i),
		}
	}
	return out
}

func dueDates(instances []*domain.DueInstance) []civil.Date {
	out := make([]civil.Date, len(instances))
	for i, inst := range instances {
		out[i] = inst.DueDate
	}
	return out
}

func TestPartition(t *testing.T) {
	today := date("2024-05-20")
	existing := monthlyInstances("due-1", date("2024-04-15"), 4) // 04-15, 05-15, 06-15, 07-15
	existing[3].MarkPaid(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), existing[3].PaidAmount)

	keep, discard := Partition(existing, today)

	assert.Equal(t, dates("2024-04-15", "2024-05-15", "2024-07-15"), dueDates(keep))
	assert.Equal(t, dates("2024-06-15"), dueDates(discard))
}

func TestPartition_TodayIsHistory(t *testing.T) {
	existing := monthlyInstances("due-1", date("2024-05-20"), 2)

	keep, discard := Partition(existing, date("2024-05-20"))

	assert.Equal(t, dates("2024-05-20"), dueDates(keep))
	assert.Equal(t, dates("2024-06-20"), dueDates(discard))
}

func TestPlanRegeneration(t *testing.T) {
	today := date("2024-05-20")
	existing := monthlyInstances("due-1", date("2024-01-15"), 8) // Jan..Aug on the 15th

	// Edited definition: moved to the 1st of the month, ending in August.
	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-01-15"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
		FixedDayOfMonth:      1,
		EndPolicy:            domain.AfterDate(date("2024-08-31")),
	}

	plan, err := NewGenerator(Options{NewID: sequentialIDs()}).PlanRegeneration(due, existing, today)

	require.NoError(t, err)
	assert.Equal(t, today, plan.Today)
	assert.Equal(t,
		dates("2024-01-15", "2024-02-15", "2024-03-15", "2024-04-15", "2024-05-15"),
		dueDates(plan.Keep))
	assert.Equal(t, dates("2024-06-15", "2024-07-15", "2024-08-15"), dueDates(plan.Discard))
	assert.Equal(t, dates("2024-06-01", "2024-07-01", "2024-08-01"), dueDates(plan.Insert))

	for _, inst := range plan.Insert {
		assert.True(t, inst.DueDate.After(today))
		assert.Equal(t, "due-1", inst.RecurringDueID)
		assert.Equal(t, "owner-1", inst.OwnerID)
		assert.False(t, inst.IsPaid)
	}
}

func TestPlanRegeneration_PaidFutureInstanceIsNotDuplicated(t *testing.T) {
	today := date("2024-05-20")
	existing := monthlyInstances("due-1", date("2024-05-01"), 3) // 05-01, 06-01, 07-01
	existing[1].MarkPaid(time.Date(2024, 5, 18, 9, 0, 0, 0, time.UTC), existing[1].PaidAmount)

	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-05-01"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
		EndPolicy:            domain.AfterOccurrences(4),
	}

	plan, err := NewGenerator(Options{}).PlanRegeneration(due, existing, today)

	require.NoError(t, err)
	assert.Equal(t, dates("2024-05-01", "2024-06-01"), dueDates(plan.Keep))
	assert.Equal(t, dates("2024-07-01"), dueDates(plan.Discard))
	assert.Equal(t, dates("2024-07-01", "2024-08-01", "2024-09-01"), dueDates(plan.Insert))
}

func TestPlanRegeneration_NoExistingInstances(t *testing.T) {
	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-01-01"),
		RecurrenceUnit:       domain.UnitAnnually,
		RecurrenceMultiplier: 1,
		EndPolicy:            domain.AfterOccurrences(3),
	}

	plan, err := NewGenerator(Options{}).PlanRegeneration(due, nil, date("2024-06-01"))

	require.NoError(t, err)
	assert.Empty(t, plan.Keep)
	assert.Empty(t, plan.Discard)
	assert.Equal(t, dates("2025-01-01", "2026-01-01", "2027-01-01"), dueDates(plan.Insert))
}

func TestPlanRegeneration_OccurrenceLimitCountsFromTomorrow(t *testing.T) {
	today := date("2024-03-20")
	existing := monthlyInstances("due-1", date("2024-01-10"), 6) // Jan..Jun on the 10th

	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-01-10"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
		EndPolicy:            domain.AfterOccurrences(6),
	}

	plan, err := NewGenerator(Options{}).PlanRegeneration(due, existing, today)

	require.NoError(t, err)
	assert.Equal(t, dates("2024-01-10", "2024-02-10", "2024-03-10"), dueDates(plan.Keep))
	assert.Equal(t, dates("2024-04-10", "2024-05-10", "2024-06-10"), dueDates(plan.Discard))
	assert.Equal(t,
		dates("2024-04-10", "2024-05-10", "2024-06-10", "2024-07-10", "2024-08-10", "2024-09-10"),
		dueDates(plan.Insert))
}

func TestPlanRegeneration_InvalidDefinition(t *testing.T) {
	due := &domain.RecurringDue{
		ID:                   "due-1",
		StartDate:            date("2024-01-01"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 0,
	}

	plan, err := NewGenerator(Options{}).PlanRegeneration(due, nil, date("2024-06-01"))

	assert.ErrorIs(t, err, domain.ErrInvalidRecurrence)
	assert.Nil(t, plan)
}
