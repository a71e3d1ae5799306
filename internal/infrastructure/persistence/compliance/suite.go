// Package compliance holds the behavioral test suite every storage backend
// must pass.
package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/application/dues"
	"github.com/badyetly/badyetly/internal/domain"
)

// Store is the full repository surface of a backend.
type Store interface {
	dues.Repository
	auth.Repository
}

// RunStorageComplianceTest runs the shared suite. setup must return a store
// over an empty schema; it registers its own cleanup on t.
func RunStorageComplianceTest(t *testing.T, setup func(t *testing.T) Store) {
	t.Run("CreateAndFindDue", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := newDue("owner-1")
		due.FixedDayOfMonth = 31
		due.EndPolicy = domain.AfterDate(civil.Date{Year: 2025, Month: time.March, Day: 31})

		created, err := store.CreateDue(ctx, due)
		require.NoError(t, err)
		assert.Equal(t, 1, created.Version)

		found, err := store.FindDue(ctx, "owner-1", due.ID)
		require.NoError(t, err)
		assertDueEqual(t, due, found)
		assert.Equal(t, 1, found.Version)
	})

	t.Run("CreateDue_NullAmountAndOccurrences", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := newDue("owner-1")
		due.Category = domain.CategoryUtilities
		due.Amount = decimal.NullDecimal{}
		due.EndPolicy = domain.AfterOccurrences(6)
		_, err := store.CreateDue(ctx, due)
		require.NoError(t, err)

		found, err := store.FindDue(ctx, "owner-1", due.ID)
		require.NoError(t, err)
		assert.False(t, found.Amount.Valid)
		assert.Equal(t, domain.AfterOccurrences(6), found.EndPolicy)
	})

	t.Run("FindDue_OwnerScopedAndInvalidID", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := newDue("owner-1")
		_, err := store.CreateDue(ctx, due)
		require.NoError(t, err)

		_, err = store.FindDue(ctx, "owner-2", due.ID)
		assert.ErrorIs(t, err, domain.ErrDueNotFound)

		_, err = store.FindDue(ctx, "owner-1", newID())
		assert.ErrorIs(t, err, domain.ErrDueNotFound)

		_, err = store.FindDue(ctx, "owner-1", "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("ListDues", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		empty, err := store.ListDues(ctx, "owner-1")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		first := newDue("owner-1")
		second := newDue("owner-1")
		second.CreatedAt = first.CreatedAt.Add(time.Minute)
		other := newDue("owner-2")
		for _, d := range []*domain.RecurringDue{second, other, first} {
			_, err := store.CreateDue(ctx, d)
			require.NoError(t, err)
		}

		list, err := store.ListDues(ctx, "owner-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)
	})

	t.Run("UpdateDue_Versioning", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := newDue("owner-1")
		created, err := store.CreateDue(ctx, due)
		require.NoError(t, err)

		changed := *created
		changed.Title = "Rent (new flat)"
		changed.RecurrenceUnit = domain.UnitQuarterly
		changed.EndPolicy = domain.AfterOccurrences(4)
		changed.UpdatedAt = created.UpdatedAt.Add(time.Hour)

		updated, err := store.UpdateDue(ctx, &changed)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, "Rent (new flat)", updated.Title)
		assert.Equal(t, domain.UnitQuarterly, updated.RecurrenceUnit)
		assert.Equal(t, domain.AfterOccurrences(4), updated.EndPolicy)

		// The copy still carries version 1.
		_, err = store.UpdateDue(ctx, &changed)
		assert.ErrorIs(t, err, domain.ErrVersionConflict)

		missing := newDue("owner-1")
		_, err = store.UpdateDue(ctx, missing)
		assert.ErrorIs(t, err, domain.ErrDueNotFound)

		foreign := *updated
		foreign.OwnerID = "owner-2"
		_, err = store.UpdateDue(ctx, &foreign)
		assert.ErrorIs(t, err, domain.ErrDueNotFound)
	})

	t.Run("DeleteDue_CascadesInstances", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")
		_, err := store.InsertInstances(ctx, instancesFor(due, 15, 3))
		require.NoError(t, err)

		assert.ErrorIs(t, store.DeleteDue(ctx, "owner-2", due.ID), domain.ErrDueNotFound)
		require.NoError(t, store.DeleteDue(ctx, "owner-1", due.ID))
		assert.ErrorIs(t, store.DeleteDue(ctx, "owner-1", due.ID), domain.ErrDueNotFound)

		left, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("InsertInstances_SkipsExistingDates", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")

		n, err := store.InsertInstances(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = store.InsertInstances(ctx, instancesFor(due, 15, 3))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		// Same three dates with fresh IDs plus two new ones.
		n, err = store.InsertInstances(ctx, instancesFor(due, 15, 5))
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		all, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1", DueID: &due.ID})
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("InsertInstances_IgnoresForeignDue", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")
		batch := instancesFor(due, 15, 2)
		for _, inst := range batch {
			inst.OwnerID = "owner-2"
		}

		n, err := store.InsertInstances(ctx, batch)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("DeleteFutureUnpaidInstances", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")
		batch := instancesFor(due, 15, 6) // Jan..Jun 2024
		paidOn := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
		batch[4].MarkPaid(paidOn, decimal.NullDecimal{}) // May, paid early
		_, err := store.InsertInstances(ctx, batch)
		require.NoError(t, err)

		after := civil.Date{Year: 2024, Month: time.March, Day: 15}

		n, err := store.DeleteFutureUnpaidInstances(ctx, "owner-2", due.ID, after)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = store.DeleteFutureUnpaidInstances(ctx, "owner-1", due.ID, after)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n) // April and June

		left, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1", DueID: &due.ID})
		require.NoError(t, err)
		assert.Equal(t, []civil.Date{
			{Year: 2024, Month: time.January, Day: 15},
			{Year: 2024, Month: time.February, Day: 15},
			{Year: 2024, Month: time.March, Day: 15},
			{Year: 2024, Month: time.May, Day: 15},
		}, dueDates(left))
	})

	t.Run("ListInstances_Filters", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		rent := createDue(t, store, "owner-1")
		phone := createDue(t, store, "owner-1")
		foreign := createDue(t, store, "owner-2")

		rentBatch := instancesFor(rent, 1, 4)
		rentBatch[0].MarkPaid(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), decimal.NullDecimal{})
		for _, b := range [][]*domain.DueInstance{rentBatch, instancesFor(phone, 20, 4), instancesFor(foreign, 10, 4)} {
			_, err := store.InsertInstances(ctx, b)
			require.NoError(t, err)
		}

		from := civil.Date{Year: 2024, Month: time.February, Day: 1}
		to := civil.Date{Year: 2024, Month: time.March, Day: 31}
		paid := true
		unpaid := false

		tests := []struct {
			name   string
			filter domain.InstanceFilter
			want   int
		}{
			{name: "owner", filter: domain.InstanceFilter{OwnerID: "owner-1"}, want: 8},
			{name: "due", filter: domain.InstanceFilter{OwnerID: "owner-1", DueID: &rent.ID}, want: 4},
			{name: "foreign due", filter: domain.InstanceFilter{OwnerID: "owner-1", DueID: &foreign.ID}, want: 0},
			{name: "range", filter: domain.InstanceFilter{OwnerID: "owner-1", From: &from, To: &to}, want: 4},
			{name: "from inclusive", filter: domain.InstanceFilter{OwnerID: "owner-1", From: &civil.Date{Year: 2024, Month: time.April, Day: 1}}, want: 2},
			{name: "paid", filter: domain.InstanceFilter{OwnerID: "owner-1", Paid: &paid}, want: 1},
			{name: "unpaid", filter: domain.InstanceFilter{OwnerID: "owner-1", Paid: &unpaid}, want: 7},
			{name: "nobody", filter: domain.InstanceFilter{OwnerID: "owner-3"}, want: 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := store.ListInstances(ctx, tt.filter)
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Len(t, got, tt.want)
				for i := 1; i < len(got); i++ {
					assert.False(t, got[i].DueDate.Before(got[i-1].DueDate), "ordered by due date")
				}
			})
		}
	})

	t.Run("SetInstancePaid", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")
		batch := instancesFor(due, 15, 1)
		_, err := store.InsertInstances(ctx, batch)
		require.NoError(t, err)
		id := batch[0].ID

		paidOn := time.Date(2024, 1, 14, 18, 30, 0, 0, time.UTC)
		amount := decimal.NewNullDecimal(decimal.RequireFromString("1180.50"))

		paid, err := store.SetInstancePaid(ctx, "owner-1", id, &paidOn, amount)
		require.NoError(t, err)
		assert.True(t, paid.IsPaid)
		require.NotNil(t, paid.PaidOn)
		assert.True(t, paidOn.Equal(*paid.PaidOn))
		require.True(t, paid.PaidAmount.Valid)
		assert.True(t, amount.Decimal.Equal(paid.PaidAmount.Decimal))

		found, err := store.FindInstance(ctx, "owner-1", id)
		require.NoError(t, err)
		assert.True(t, found.IsPaid)
		assert.Equal(t, due.ID, found.RecurringDueID)

		unpaid, err := store.SetInstancePaid(ctx, "owner-1", id, nil, amount)
		require.NoError(t, err)
		assert.False(t, unpaid.IsPaid)
		assert.Nil(t, unpaid.PaidOn)
		assert.False(t, unpaid.PaidAmount.Valid)

		_, err = store.SetInstancePaid(ctx, "owner-2", id, &paidOn, amount)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
		_, err = store.FindInstance(ctx, "owner-2", id)
		assert.ErrorIs(t, err, domain.ErrInstanceNotFound)
		_, err = store.FindInstance(ctx, "owner-1", "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})

	t.Run("Atomic_RollsBackOnError", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		boom := errors.New("boom")

		due := newDue("owner-1")
		err := store.Atomic(ctx, func(repo dues.Repository) error {
			if _, err := repo.CreateDue(ctx, due); err != nil {
				return err
			}
			if _, err := repo.InsertInstances(ctx, instancesFor(due, 15, 3)); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = store.FindDue(ctx, "owner-1", due.ID)
		assert.ErrorIs(t, err, domain.ErrDueNotFound)
	})

	t.Run("Atomic_Commits", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := newDue("owner-1")
		err := store.Atomic(ctx, func(repo dues.Repository) error {
			if _, err := repo.CreateDue(ctx, due); err != nil {
				return err
			}
			_, err := repo.InsertInstances(ctx, instancesFor(due, 15, 3))
			return err
		})
		require.NoError(t, err)

		all, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1", DueID: &due.ID})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("AtomicSchedule_ReplacesFutureInstances", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		due := createDue(t, store, "owner-1")
		_, err := store.InsertInstances(ctx, instancesFor(due, 15, 4))
		require.NoError(t, err)

		today := civil.Date{Year: 2024, Month: time.February, Day: 20}
		var deleted, inserted int64
		err = store.AtomicSchedule(ctx, func(ops dues.ScheduleOperations) error {
			var err error
			if deleted, err = ops.DeleteFutureUnpaidInstances(ctx, "owner-1", due.ID, today); err != nil {
				return err
			}
			inserted, err = ops.InsertInstances(ctx, instancesFor(due, 1, 4)[2:])
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.Equal(t, int64(2), inserted)

		all, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1", DueID: &due.ID})
		require.NoError(t, err)
		assert.Equal(t, []civil.Date{
			{Year: 2024, Month: time.January, Day: 15},
			{Year: 2024, Month: time.February, Day: 15},
			{Year: 2024, Month: time.March, Day: 1},
			{Year: 2024, Month: time.April, Day: 1},
		}, dueDates(all))
	})

	t.Run("AtomicSchedule_RollsBackDeleteWhenInsertFails", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()
		boom := errors.New("insert failed")

		due := createDue(t, store, "owner-1")
		_, err := store.InsertInstances(ctx, instancesFor(due, 15, 4))
		require.NoError(t, err)

		err = store.AtomicSchedule(ctx, func(ops dues.ScheduleOperations) error {
			if _, err := ops.DeleteFutureUnpaidInstances(ctx, "owner-1", due.ID, civil.Date{Year: 2024, Month: time.January, Day: 1}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		all, err := store.ListInstances(ctx, domain.InstanceFilter{OwnerID: "owner-1", DueID: &due.ID})
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("APIKeys", func(t *testing.T) {
		store := setup(t)
		ctx := context.Background()

		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		key := &domain.APIKey{
			ID:             newID(),
			OwnerID:        "owner-1",
			KeyType:        "sk",
			Service:        "badyetly",
			Version:        "v1",
			ShortToken:     "a3f5d8c2b4e6",
			LongSecretHash: "hash",
			Name:           "laptop",
			IsActive:       true,
			CreatedAt:      time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
			ExpiresAt:      &expires,
		}
		require.NoError(t, store.Create(ctx, key))

		dup := *key
		dup.ID = newID()
		assert.Error(t, store.Create(ctx, &dup), "short token is unique")

		found, err := store.FindByShortToken(ctx, key.ShortToken)
		require.NoError(t, err)
		assert.Equal(t, key.ID, found.ID)
		assert.Equal(t, "owner-1", found.OwnerID)
		assert.True(t, found.IsActive)
		assert.Nil(t, found.LastUsedAt)
		require.NotNil(t, found.ExpiresAt)
		assert.True(t, expires.Equal(*found.ExpiresAt))

		_, err = store.FindByShortToken(ctx, "000000000000")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		later := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
		earlier := later.Add(-time.Hour)
		require.NoError(t, store.UpdateLastUsed(ctx, key.ID, later))
		require.NoError(t, store.UpdateLastUsed(ctx, key.ID, earlier), "older timestamps are ignored")

		found, err = store.FindByShortToken(ctx, key.ShortToken)
		require.NoError(t, err)
		require.NotNil(t, found.LastUsedAt)
		assert.True(t, later.Equal(*found.LastUsedAt))

		assert.ErrorIs(t, store.UpdateLastUsed(ctx, newID(), later), domain.ErrNotFound)
	})
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// newDue returns a monthly rent due starting 2024-01-15 with no end.
func newDue(ownerID string) *domain.RecurringDue {
	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return &domain.RecurringDue{
		ID:                   newID(),
		OwnerID:              ownerID,
		Title:                "Rent",
		Amount:               decimal.NewNullDecimal(decimal.RequireFromString("1200.00")),
		Category:             domain.CategoryOther,
		StartDate:            civil.Date{Year: 2024, Month: time.January, Day: 15},
		RecurrenceUnit:       domain.UnitMonthly,
		RecurrenceMultiplier: 1,
		EndPolicy:            domain.Never(),
		Status:               domain.DueStatusActive,
		Notes:                "landlord: Ms. Weber",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func createDue(t *testing.T, store Store, ownerID string) *domain.RecurringDue {
	t.Helper()
	created, err := store.CreateDue(context.Background(), newDue(ownerID))
	require.NoError(t, err)
	return created
}

// instancesFor returns n monthly instances of due on the given day, starting January 2024.
func instancesFor(due *domain.RecurringDue, day, n int) []*domain.DueInstance {
	out := make([]*domain.DueInstance, n)
	for i := range n {
		out[i] = &domain.DueInstance{
			ID:             newID(),
			RecurringDueID: due.ID,
			OwnerID:        due.OwnerID,
			DueDate:        civil.Date{Year: 2024, Month: time.January + time.Month(i), Day: day},
			CreatedAt:      time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
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

func assertDueEqual(t *testing.T, want, got *domain.RecurringDue) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.OwnerID, got.OwnerID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Amount.Valid, got.Amount.Valid)
	assert.True(t, want.Amount.Decimal.Equal(got.Amount.Decimal))
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.StartDate, got.StartDate)
	assert.Equal(t, want.RecurrenceUnit, got.RecurrenceUnit)
	assert.Equal(t, want.RecurrenceMultiplier, got.RecurrenceMultiplier)
	assert.Equal(t, want.FixedDayOfMonth, got.FixedDayOfMonth)
	assert.Equal(t, want.EndPolicy, got.EndPolicy)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Notes, got.Notes)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
}
