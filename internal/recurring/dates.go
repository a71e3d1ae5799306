// Package recurring expands recurring-due definitions into dated instances.
//
// All schedule computation lives here: calendar arithmetic, the termination
// policy, the instance generator, the regeneration planner and the preview
// projector. Everything in the package is pure; persistence and "today" are
// supplied by the caller.
package recurring

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/badyetly/badyetly/internal/domain"
)

// AddUnits advances date by multiplier units of unit.
//
// Weeks are fixed 7-day steps. Months, quarters and years use calendar-month
// addition: the result never spills into the following month. Adding one
// month to January 31 yields the last day of February, and the caller's
// clamping step restores the anchor day when a longer month comes around.
func AddUnits(date civil.Date, unit domain.RecurrenceUnit, multiplier int) civil.Date {
	switch unit {
	case domain.UnitWeekly:
		return date.AddDays(7 * multiplier)
	case domain.UnitBiweekly:
		return AddUnits(date, domain.UnitWeekly, 2*multiplier)
	case domain.UnitMonthly:
		return addMonths(date, multiplier)
	case domain.UnitQuarterly:
		return addMonths(date, 3*multiplier)
	case domain.UnitAnnually:
		return addMonths(date, 12*multiplier)
	default:
		return date
	}
}

func addMonths(date civil.Date, n int) civil.Date {
	// Normalize on the first of the month so time.Date cannot overflow the day.
	first := time.Date(date.Year, date.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	year, month := first.Year(), first.Month()

	return civil.Date{
		Year:  year,
		Month: month,
		Day:   min(date.Day, DaysIn(year, month)),
	}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDayOfMonth returns the date in the same month with its day set to
// min(day, last day of the month). A day outside 1..31 leaves date unchanged.
func ClampDayOfMonth(date civil.Date, day int) civil.Date {
	if day < 1 || day > 31 {
		return date
	}
	return civil.Date{
		Year:  date.Year,
		Month: date.Month,
		Day:   min(day, DaysIn(date.Year, date.Month)),
	}
}

// Today returns the calendar date of now in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}
