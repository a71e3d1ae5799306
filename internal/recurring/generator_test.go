package recurring

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/domain"
)

// sequentialIDs returns an ID source yielding id-1, id-2, ...
func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func dates(ss ...string) []civil.Date {
	out := make([]civil.Date, len(ss))
	for i, s := range ss {
		out[i] = date(s)
	}
	return out
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		from string
		want []civil.Date
	}{
		{
			name: "quarterly on day 31 stops after four occurrences",
			def: Definition{
				StartDate:       date("2024-01-01"),
				Unit:            domain.UnitQuarterly,
				Multiplier:      1,
				FixedDayOfMonth: 31,
				End:             domain.AfterOccurrences(4),
			},
			from: "2024-01-01",
			want: dates("2024-01-31", "2024-04-30", "2024-07-31", "2024-10-31"),
		},
		{
			name: "every two weeks until end date inclusive",
			def: Definition{
				StartDate:  date("2024-06-01"),
				Unit:       domain.UnitWeekly,
				Multiplier: 2,
				End:        domain.AfterDate(date("2024-07-01")),
			},
			from: "2024-06-01",
			want: dates("2024-06-01", "2024-06-15", "2024-06-29"),
		},
		{
			name: "end date falling on an occurrence includes it",
			def: Definition{
				StartDate:  date("2024-06-01"),
				Unit:       domain.UnitWeekly,
				Multiplier: 2,
				End:        domain.AfterDate(date("2024-06-29")),
			},
			from: "2024-06-01",
			want: dates("2024-06-01", "2024-06-15", "2024-06-29"),
		},
		{
			name: "day 31 survives short months",
			def: Definition{
				StartDate:  date("2024-01-31"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterOccurrences(5),
			},
			from: "2024-01-31",
			want: dates("2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"),
		},
		{
			name: "leap day annual",
			def: Definition{
				StartDate:  date("2024-02-29"),
				Unit:       domain.UnitAnnually,
				Multiplier: 1,
				End:        domain.AfterOccurrences(5),
			},
			from: "2024-02-29",
			want: dates("2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"),
		},
		{
			name: "fixed day before start day begins next month",
			def: Definition{
				StartDate:       date("2024-01-20"),
				Unit:            domain.UnitMonthly,
				Multiplier:      1,
				FixedDayOfMonth: 5,
				End:             domain.AfterOccurrences(3),
			},
			from: "2024-01-01",
			want: dates("2024-02-05", "2024-03-05", "2024-04-05"),
		},
		{
			name: "fixed day ignored for weekly",
			def: Definition{
				StartDate:       date("2024-06-03"),
				Unit:            domain.UnitWeekly,
				Multiplier:      1,
				FixedDayOfMonth: 15,
				End:             domain.AfterOccurrences(3),
			},
			from: "2024-06-03",
			want: dates("2024-06-03", "2024-06-10", "2024-06-17"),
		},
		{
			name: "biweekly multiplier doubles the step",
			def: Definition{
				StartDate:  date("2024-01-01"),
				Unit:       domain.UnitBiweekly,
				Multiplier: 2,
				End:        domain.AfterOccurrences(3),
			},
			from: "2024-01-01",
			want: dates("2024-01-01", "2024-01-29", "2024-02-26"),
		},
		{
			name: "occurrence count starts at the floor",
			def: Definition{
				StartDate:  date("2024-01-15"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterOccurrences(6),
			},
			from: "2024-04-01",
			want: dates("2024-04-15", "2024-05-15", "2024-06-15", "2024-07-15", "2024-08-15", "2024-09-15"),
		},
		{
			name: "from floor is inclusive",
			def: Definition{
				StartDate:  date("2024-01-15"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterOccurrences(3),
			},
			from: "2024-02-15",
			want: dates("2024-02-15", "2024-03-15", "2024-04-15"),
		},
		{
			name: "end date before start yields nothing",
			def: Definition{
				StartDate:  date("2024-06-01"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterDate(date("2024-05-01")),
			},
			from: "2024-01-01",
			want: nil,
		},
		{
			name: "from after end date yields nothing",
			def: Definition{
				StartDate:  date("2024-01-01"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterDate(date("2024-03-01")),
			},
			from: "2025-01-01",
			want: nil,
		},
		{
			name: "occurrence count restarts when the floor is past the original series",
			def: Definition{
				StartDate:  date("2024-01-01"),
				Unit:       domain.UnitMonthly,
				Multiplier: 1,
				End:        domain.AfterOccurrences(2),
			},
			from: "2025-01-01",
			want: dates("2025-01-01", "2025-02-01"),
		},
		{
			name: "annual series stops at the last representable year",
			def: Definition{
				StartDate:  date("9997-03-01"),
				Unit:       domain.UnitAnnually,
				Multiplier: 1,
				End:        domain.Never(),
			},
			from: "9997-03-01",
			want: dates("9997-03-01", "9998-03-01", "9999-03-01"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(Options{})

			got, err := g.Schedule(tt.def, date(tt.from))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchedule_NeverIsBoundedByCap(t *testing.T) {
	def := Definition{
		StartDate:  date("2024-01-15"),
		Unit:       domain.UnitMonthly,
		Multiplier: 1,
		End:        domain.Never(),
	}

	got, err := NewGenerator(Options{}).Schedule(def, def.StartDate)

	require.NoError(t, err)
	require.Len(t, got, DefaultInstanceCap)
	assert.Equal(t, date("2024-01-15"), got[0])
	assert.Equal(t, date("2032-04-15"), got[len(got)-1])
}

func TestSchedule_CapAppliesToEveryPolicy(t *testing.T) {
	g := NewGenerator(Options{InstanceCap: 5})

	tests := []struct {
		name string
		end  domain.EndPolicy
	}{
		{name: "never", end: domain.Never()},
		{name: "far end date", end: domain.AfterDate(date("2100-01-01"))},
		{name: "many occurrences", end: domain.AfterOccurrences(500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := Definition{
				StartDate:  date("2024-01-01"),
				Unit:       domain.UnitWeekly,
				Multiplier: 1,
				End:        tt.end,
			}

			got, err := g.Schedule(def, def.StartDate)

			require.NoError(t, err)
			assert.Len(t, got, 5)
		})
	}
}

func TestSchedule_InvalidDefinition(t *testing.T) {
	valid := Definition{
		StartDate:  date("2024-01-01"),
		Unit:       domain.UnitMonthly,
		Multiplier: 1,
		End:        domain.Never(),
	}

	tests := []struct {
		name   string
		modify func(d *Definition)
	}{
		{name: "zero multiplier", modify: func(d *Definition) { d.Multiplier = 0 }},
		{name: "negative multiplier", modify: func(d *Definition) { d.Multiplier = -2 }},
		{name: "multiplier above maximum", modify: func(d *Definition) { d.Multiplier = MaxMultiplier + 1 }},
		{name: "huge multiplier", modify: func(d *Definition) { d.Multiplier = 1 << 40 }},
		{name: "start year out of range", modify: func(d *Definition) { d.StartDate = civil.Date{Year: 10000, Month: 1, Day: 1} }},
		{name: "unknown unit", modify: func(d *Definition) { d.Unit = "daily" }},
		{name: "missing start date", modify: func(d *Definition) { d.StartDate = civil.Date{} }},
		{name: "fixed day out of range", modify: func(d *Definition) { d.FixedDayOfMonth = 32 }},
		{name: "zero occurrences", modify: func(d *Definition) { d.End = domain.AfterOccurrences(0) }},
		{name: "unknown end kind", modify: func(d *Definition) { d.End = domain.EndPolicy{Kind: "sometimes"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := valid
			tt.modify(&def)

			got, err := NewGenerator(Options{}).Schedule(def, def.StartDate)

			assert.ErrorIs(t, err, domain.ErrInvalidRecurrence)
			assert.Empty(t, got)
		})
	}
}

func TestSchedule_AfterOccurrencesEmitsExactCountFromAnyFloor(t *testing.T) {
	def := Definition{
		StartDate:  date("2024-01-10"),
		Unit:       domain.UnitMonthly,
		Multiplier: 1,
		End:        domain.AfterOccurrences(6),
	}
	g := NewGenerator(Options{})

	for _, from := range dates("2024-01-10", "2024-03-21", "2030-07-01") {
		got, err := g.Schedule(def, from)
		require.NoError(t, err)
		assert.Len(t, got, 6, "from %s", from)
	}
}

func TestSchedule_LargestMultiplierTerminates(t *testing.T) {
	g := NewGenerator(Options{})

	for _, unit := range []domain.RecurrenceUnit{
		domain.UnitWeekly, domain.UnitBiweekly, domain.UnitMonthly, domain.UnitQuarterly, domain.UnitAnnually,
	} {
		t.Run(string(unit), func(t *testing.T) {
			def := Definition{
				StartDate:  date("2024-01-15"),
				Unit:       unit,
				Multiplier: MaxMultiplier,
				End:        domain.Never(),
			}

			done := make(chan []civil.Date, 1)
			go func() {
				got, err := g.Schedule(def, def.StartDate)
				assert.NoError(t, err)
				done <- got
			}()

			select {
			case got := <-done:
				require.NotEmpty(t, got)
				for _, d := range got {
					assert.LessOrEqual(t, d.Year, MaxYear)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Schedule did not return")
			}
		})
	}
}

// Every emitted date must be strictly later than the previous one, never
// before the start date or the floor, and within the cap.
func TestSchedule_Properties(t *testing.T) {
	g := NewGenerator(Options{})
	units := []domain.RecurrenceUnit{
		domain.UnitWeekly, domain.UnitBiweekly, domain.UnitMonthly, domain.UnitQuarterly, domain.UnitAnnually,
	}
	starts := dates("2024-01-31", "2024-02-29", "2023-08-30", "2024-12-01")
	floors := []int{0, 45, 400}

	for _, unit := range units {
		for multiplier := 1; multiplier <= 3; multiplier++ {
			for _, fixedDay := range []int{0, 1, 29, 31} {
				for _, start := range starts {
					for _, offset := range floors {
						def := Definition{
							StartDate:       start,
							Unit:            unit,
							Multiplier:      multiplier,
							FixedDayOfMonth: fixedDay,
							End:             domain.Never(),
						}
						from := start.AddDays(offset)
						name := fmt.Sprintf("%s x%d day %d from %s floor %s", unit, multiplier, fixedDay, start, from)

						got, err := g.Schedule(def, from)
						require.NoError(t, err, name)
						require.NotEmpty(t, got, name)
						require.LessOrEqual(t, len(got), DefaultInstanceCap, name)

						for i, d := range got {
							require.False(t, d.Before(start), "%s: %s before start", name, d)
							require.False(t, d.Before(from), "%s: %s before floor", name, d)
							if i > 0 {
								require.True(t, d.After(got[i-1]), "%s: %s not after %s", name, d, got[i-1])
							}
						}
					}
				}
			}
		}
	}
}

func TestGenerate(t *testing.T) {
	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-01-15"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
		EndPolicy:            domain.AfterOccurrences(3),
	}
	g := NewGenerator(Options{NewID: sequentialIDs()})

	instances, err := g.Generate(due, due.StartDate)

	require.NoError(t, err)
	require.Len(t, instances, 3)
	for i, inst := range instances {
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), inst.ID)
		assert.Equal(t, "due-1", inst.RecurringDueID)
		assert.Equal(t, "owner-1", inst.OwnerID)
		assert.False(t, inst.IsPaid)
		assert.Nil(t, inst.PaidOn)
	}
	assert.Equal(t, date("2024-03-15"), instances[2].DueDate)
}

func TestGenerate_DefaultIDsAreUnique(t *testing.T) {
	due := &domain.RecurringDue{
		ID:                   "due-1",
		OwnerID:              "owner-1",
		StartDate:            date("2024-01-01"),
		RecurrenceUnit:       domain.UnitWeekly,
		RecurrenceMultiplier: 1,
	}

	instances, err := NewGenerator(Options{}).Generate(due, due.StartDate)

	require.NoError(t, err)
	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		assert.NotEmpty(t, inst.ID)
		assert.False(t, seen[inst.ID], "duplicate ID %s", inst.ID)
		seen[inst.ID] = true
	}
}

func TestGenerate_IDFailure(t *testing.T) {
	idErr := errors.New("entropy exhausted")
	g := NewGenerator(Options{NewID: func() (string, error) { return "", idErr }})
	due := &domain.RecurringDue{
		ID:                   "due-1",
		StartDate:            date("2024-01-01"),
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
	}

	_, err := g.Generate(due, due.StartDate)

	assert.ErrorIs(t, err, idErr)
}
