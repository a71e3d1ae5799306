package recurring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/badyetly/badyetly/internal/domain"
)

func TestTermination(t *testing.T) {
	until := date("2024-07-01")

	tests := []struct {
		name        string
		end         domain.EndPolicy
		candidate   string
		occurrences int
		want        bool
	}{
		{name: "never", end: domain.Never(), candidate: "2099-01-01", occurrences: 10_000, want: false},
		{name: "zero policy is never", end: domain.EndPolicy{}, candidate: "2099-01-01", occurrences: 10_000, want: false},
		{name: "before end date", end: domain.AfterDate(until), candidate: "2024-06-30", want: false},
		{name: "on end date is included", end: domain.AfterDate(until), candidate: "2024-07-01", want: false},
		{name: "after end date", end: domain.AfterDate(until), candidate: "2024-07-02", want: true},
		{name: "occurrences remaining", end: domain.AfterOccurrences(3), candidate: "2024-01-01", occurrences: 2, want: false},
		{name: "occurrences exhausted", end: domain.AfterOccurrences(3), candidate: "2024-01-01", occurrences: 3, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop := Termination(tt.end)
			assert.Equal(t, tt.want, stop(date(tt.candidate), tt.occurrences))
		})
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		unit       domain.RecurrenceUnit
		multiplier int
		want       string
	}{
		{domain.UnitWeekly, 1, "Weekly"},
		{domain.UnitWeekly, 3, "Every 3 weeks"},
		{domain.UnitBiweekly, 1, "Biweekly"},
		{domain.UnitBiweekly, 2, "Every 4 weeks"},
		{domain.UnitMonthly, 1, "Monthly"},
		{domain.UnitMonthly, 6, "Every 6 months"},
		{domain.UnitQuarterly, 1, "Quarterly"},
		{domain.UnitQuarterly, 2, "Every 2 quarters"},
		{domain.UnitAnnually, 1, "Annually"},
		{domain.UnitAnnually, 5, "Every 5 years"},
		{domain.UnitMonthly, 0, ""},
		{domain.UnitAnnually, MaxMultiplier + 1, ""},
		{"fortnightly", 1, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.unit, tt.multiplier), "%s x%d", tt.unit, tt.multiplier)
	}
}
