package recurring

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/badyetly/badyetly/internal/domain"
)

// DefaultInstanceCap bounds a single generation run. Open-ended dues get
// exactly this many instances.
const DefaultInstanceCap = 100

// MaxMultiplier is the largest accepted recurrence multiplier.
const MaxMultiplier = 999

// MaxYear is the last calendar year a schedule may reach; storage cannot
// represent later dates.
const MaxYear = 9999

// DefaultPreviewCount is the number of upcoming dates shown while a due is edited.
const DefaultPreviewCount = 3

// StopFunc reports whether generation must stop before emitting candidate.
// occurrences is the number of occurrences already counted in the series.
type StopFunc func(candidate civil.Date, occurrences int) bool

// Termination returns the stop predicate for an end policy.
// Never does not stop on its own; the generator's instance cap bounds it.
func Termination(end domain.EndPolicy) StopFunc {
	switch end.Kind {
	case domain.EndAfterDate:
		until := end.Until
		return func(candidate civil.Date, _ int) bool {
			return candidate.After(until)
		}
	case domain.EndAfterOccurrences:
		count := end.Count
		return func(_ civil.Date, occurrences int) bool {
			return occurrences >= count
		}
	default:
		return func(civil.Date, int) bool { return false }
	}
}

type unitNames struct {
	natural  string
	plural   string
	perCycle int // plural units per unit step
}

var cadenceNames = map[domain.RecurrenceUnit]unitNames{
	domain.UnitWeekly:    {natural: "Weekly", plural: "weeks", perCycle: 1},
	domain.UnitBiweekly:  {natural: "Biweekly", plural: "weeks", perCycle: 2},
	domain.UnitMonthly:   {natural: "Monthly", plural: "months", perCycle: 1},
	domain.UnitQuarterly: {natural: "Quarterly", plural: "quarters", perCycle: 1},
	domain.UnitAnnually:  {natural: "Annually", plural: "years", perCycle: 1},
}

// Describe returns a human-readable cadence such as "Monthly",
// "Every 2 weeks" or "Every 3 months". It returns "" for an unknown unit or
// a non-positive multiplier.
func Describe(unit domain.RecurrenceUnit, multiplier int) string {
	names, ok := cadenceNames[unit]
	if !ok || multiplier < 1 || multiplier > MaxMultiplier {
		return ""
	}
	if multiplier == 1 {
		return names.natural
	}
	return fmt.Sprintf("Every %d %s", multiplier*names.perCycle, names.plural)
}
