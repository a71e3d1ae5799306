package postgres

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/domain"
)

func TestParseID(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7())

		parsed, err := parseID("due", id.String())

		require.NoError(t, err)
		assert.Equal(t, id.String(), pgtypeToUUIDString(parsed))
	})

	// Both the domain error and the parse error stay in the chain.
	t.Run("invalid keeps both errors", func(t *testing.T) {
		_, parseErr := uuid.Parse("not-a-uuid")
		require.Error(t, parseErr)

		_, err := parseID("due", "not-a-uuid")

		assert.ErrorIs(t, err, domain.ErrInvalidID)
		assert.ErrorIs(t, err, parseErr)
	})
}

func TestDateConversion(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		d := civil.Date{Year: 2024, Month: time.February, Day: 29}

		pg := dateToPgtype(d)

		require.True(t, pg.Valid)
		assert.Equal(t, d, pgtypeToDate(pg))
	})

	t.Run("zero date is NULL", func(t *testing.T) {
		assert.False(t, dateToPgtype(civil.Date{}).Valid)
		assert.True(t, pgtypeToDate(pgtype.Date{}).IsZero())
	})

	t.Run("nil filter is NULL", func(t *testing.T) {
		assert.False(t, datePtrToPgtype(nil).Valid)
	})
}

func TestTimeConversion(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	ts := time.Date(2024, 5, 20, 14, 0, 0, 0, berlin)

	got := pgtypeToTime(timeToPgtype(ts))
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, ts.Equal(got))

	assert.Nil(t, pgtypeToTimePtr(timePtrToPgtype(nil)))
	ptr := pgtypeToTimePtr(timePtrToPgtype(&ts))
	require.NotNil(t, ptr)
	assert.Equal(t, time.UTC, ptr.Location())
}

func TestDecimalConversion(t *testing.T) {
	tests := []struct {
		name string
		in   decimal.NullDecimal
	}{
		{name: "null", in: decimal.NullDecimal{}},
		{name: "integer", in: decimal.NewNullDecimal(decimal.NewFromInt(1200))},
		{name: "cents", in: decimal.NewNullDecimal(decimal.RequireFromString("89.99"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pgtypeToDecimal(decimalToPgtype(tt.in))

			require.NoError(t, err)
			assert.Equal(t, tt.in.Valid, got.Valid)
			assert.True(t, tt.in.Decimal.Equal(got.Decimal))
		})
	}

	t.Run("garbage", func(t *testing.T) {
		_, err := pgtypeToDecimal(pgtype.Text{String: "twelve", Valid: true})
		assert.Error(t, err)
	})
}

func TestEndPolicyConversion(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.EndPolicy
		want   domain.EndPolicy
	}{
		{name: "never", policy: domain.Never(), want: domain.Never()},
		{name: "zero value is never", policy: domain.EndPolicy{}, want: domain.Never()},
		{
			name:   "after date",
			policy: domain.AfterDate(civil.Date{Year: 2024, Month: time.August, Day: 31}),
			want:   domain.AfterDate(civil.Date{Year: 2024, Month: time.August, Day: 31}),
		},
		{name: "after occurrences", policy: domain.AfterOccurrences(12), want: domain.AfterOccurrences(12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, until, count := endPolicyToPgtype(tt.policy)

			assert.Equal(t, tt.want, pgtypeToEndPolicy(kind, until, count))
		})
	}
}
