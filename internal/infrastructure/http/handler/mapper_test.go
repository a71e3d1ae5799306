package handler

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/domain"
)

func TestMapDueToDTO(t *testing.T) {
	due := &domain.RecurringDue{
		ID:                   "d1",
		Title:                "Gym",
		Amount:               decimal.NewNullDecimal(decimal.RequireFromString("29.90")),
		Category:             domain.CategorySubscription,
		StartDate:            civil.Date{Year: 2024, Month: 1, Day: 15},
		RecurrenceUnit:       domain.UnitWeekly,
		RecurrenceMultiplier: 3,
		EndPolicy:            domain.AfterDate(civil.Date{Year: 2024, Month: 12, Day: 31}),
		Status:               domain.DueStatusActive,
		Version:              4,
	}

	dto := MapDueToDTO(due)

	require.NotNil(t, dto.Amount)
	assert.Equal(t, "29.9", *dto.Amount)
	assert.Nil(t, dto.FixedDayOfMonth)
	assert.Equal(t, "Every 3 weeks", dto.Cadence)
	assert.Equal(t, EndPolicyDTO{Kind: "after_date", Until: "2024-12-31"}, dto.EndPolicy)

	body, err := json.Marshal(dto)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"start_date":"2024-01-15"`)
	assert.Contains(t, string(body), `"fixed_day_of_month":null`)
}

func TestMapDueToDTO_VariableAmountAndFixedDay(t *testing.T) {
	due := &domain.RecurringDue{
		Category:        domain.CategoryUtilities,
		RecurrenceUnit:  domain.UnitMonthly,
		FixedDayOfMonth: 31,
		EndPolicy:       domain.AfterOccurrences(12),
	}

	dto := MapDueToDTO(due)

	assert.Nil(t, dto.Amount)
	require.NotNil(t, dto.FixedDayOfMonth)
	assert.Equal(t, 31, *dto.FixedDayOfMonth)
	assert.Equal(t, EndPolicyDTO{Kind: "after_occurrences", Count: 12}, dto.EndPolicy)
}

func TestMapInstancesToDTO_NeverNil(t *testing.T) {
	body, err := json.Marshal(MapInstancesToDTO(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestMapInstancesToDTO_EffectiveAmount(t *testing.T) {
	instances := []*domain.DueInstance{
		{ID: "i1", PaidAmount: decimal.NewNullDecimal(decimal.RequireFromString("80.25"))},
		{ID: "i2"},
		{ID: "i3"},
	}
	effective := map[string]decimal.NullDecimal{
		"i1": decimal.NewNullDecimal(decimal.RequireFromString("80.25")),
		"i2": decimal.NewNullDecimal(decimal.RequireFromString("95")),
	}

	dtos := MapInstancesToDTO(instances, effective)

	require.Len(t, dtos, 3)
	require.NotNil(t, dtos[0].EffectiveAmount)
	assert.Equal(t, "80.25", *dtos[0].EffectiveAmount)
	require.NotNil(t, dtos[1].EffectiveAmount)
	assert.Equal(t, "95", *dtos[1].EffectiveAmount)
	assert.Nil(t, dtos[1].PaidAmount)
	assert.Nil(t, dtos[2].EffectiveAmount)

	body, err := json.Marshal(dtos[2])
	require.NoError(t, err)
	assert.Contains(t, string(body), `"effective_amount":null`)
}

func TestRawValue_AcceptsStringsAndNumbers(t *testing.T) {
	var req ScheduleRequest
	require.NoError(t, json.Unmarshal([]byte(
		`{"start_date":"2024-02-29","recurrence_multiplier":2,"fixed_day_of_month":null,"occurrences":"4"}`), &req))

	assert.Equal(t, rawValue("2024-02-29"), req.StartDate)
	assert.Equal(t, rawValue("2"), req.RecurrenceMultiplier)
	assert.Equal(t, rawValue(""), req.FixedDayOfMonth)
	assert.Equal(t, rawValue("4"), req.Occurrences)

	assert.Error(t, json.Unmarshal([]byte(`{"recurrence_multiplier":true}`), &req))
}
