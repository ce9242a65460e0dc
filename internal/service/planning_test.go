package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpierre44/formation-api/internal/domain"
)

var (
	formateurX = domain.Formateur{ID: 1, Prenom: "Xavier", Nom: "Leroy", Email: "x@exemple.fr", Fonction: "formateur", Niveau: 3}
	formateurY = domain.Formateur{ID: 2, Prenom: "Yann", Nom: "Morel", Email: "y@exemple.fr", Fonction: "formateur", Niveau: 2}
	competentZ = domain.Formateur{ID: 3, Prenom: "Zoe", Nom: "Brun", Email: "z@exemple.fr", Fonction: "consultant", Niveau: 1}
)

func newPlanningForTest(users *fakeUserRepo, events *fakeEventRepo, clock *fakeClock) *PlanningService {
	now := time.Now
	if clock != nil {
		now = clock.Now
	}
	return NewPlanningService(users, events, time.UTC, DefaultCacheTTL, now)
}

func TestResolveTrainerPool(t *testing.T) {
	ctx := context.Background()

	t.Run("formateurs only", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX, competentZ}}
		svc := newPlanningForTest(users, newFakeEventRepo(), nil)

		pool, err := svc.ResolveTrainerPool(ctx, 10)
		require.NoError(t, err)
		assert.False(t, pool.Fallback)
		require.Len(t, pool.Formateurs, 1)
		assert.Equal(t, formateurX.ID, pool.Formateurs[0].ID)
	})

	t.Run("fallback to competent users", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{competentZ}}
		svc := newPlanningForTest(users, newFakeEventRepo(), nil)

		pool, err := svc.ResolveTrainerPool(ctx, 10)
		require.NoError(t, err)
		assert.True(t, pool.Fallback)
		require.Len(t, pool.Formateurs, 1)
		assert.Equal(t, competentZ.ID, pool.Formateurs[0].ID)
	})

	t.Run("nobody competent", func(t *testing.T) {
		svc := newPlanningForTest(&fakeUserRepo{}, newFakeEventRepo(), nil)

		pool, err := svc.ResolveTrainerPool(ctx, 10)
		require.NoError(t, err)
		assert.False(t, pool.Fallback)
		assert.Empty(t, pool.Formateurs)
	})
}

func TestGetAvailableSlots_SingleTrainerNoEvents(t *testing.T) {
	ctx := context.Background()
	users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
	events := newFakeEventRepo()
	svc := newPlanningForTest(users, events, nil)

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := svc.GetAvailableSlots(ctx, 10, monday)
	require.NoError(t, err)
	require.Len(t, slots, 17)
	for _, slot := range slots {
		assert.Equal(t, 1, slot.Count)
		assert.Equal(t, formateurX.ID, slot.Formateurs[0].ID)
	}
}

func TestGetAvailableSlots_BookedSlotExcluded(t *testing.T) {
	ctx := context.Background()
	users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
	events := newFakeEventRepo()
	svc := newPlanningForTest(users, events, nil)

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, err := events.Create(ctx, domain.Event{
		FormateurID: formateurX.ID,
		Start:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
		Kind:        domain.EventKindAppointment,
	}, nil)
	require.NoError(t, err)

	slots, err := svc.GetAvailableSlots(ctx, 10, monday)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, "09:30", slots[0].StartTime, "first free slot is the one after the booking")
}

func TestGetAvailableSlots_EmptyPool(t *testing.T) {
	svc := newPlanningForTest(&fakeUserRepo{}, newFakeEventRepo(), nil)

	slots, err := svc.GetAvailableSlots(context.Background(), 10, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGetAvailableSlotsForSession(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("three free days yield one whole-day slot", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		svc := newPlanningForTest(users, newFakeEventRepo(), nil)

		dates := []time.Time{monday, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 2)}
		slots, err := svc.GetAvailableSlotsForSession(ctx, 10, dates, 3)
		require.NoError(t, err)
		require.Len(t, slots, 1)
		assert.Equal(t, "09:00", slots[0].StartTime)
		assert.Equal(t, "17:00", slots[0].EndTime)
		assert.Equal(t, 3, slots[0].DurationDays)
		require.Len(t, slots[0].Formateurs, 1)
	})

	t.Run("conflict on one day disqualifies the trainer", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		events := newFakeEventRepo()
		svc := newPlanningForTest(users, events, nil)

		// Busy Tuesday afternoon.
		_, err := events.Create(ctx, domain.Event{
			FormateurID: formateurX.ID,
			Start:       time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC),
			End:         time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC),
		}, nil)
		require.NoError(t, err)

		dates := []time.Time{monday, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 2)}
		slots, err := svc.GetAvailableSlotsForSession(ctx, 10, dates, 3)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("window crossing a weekend is rejected", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		svc := newPlanningForTest(users, newFakeEventRepo(), nil)

		friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)
		dates := []time.Time{friday, friday.AddDate(0, 0, 1), friday.AddDate(0, 0, 2)}
		slots, err := svc.GetAvailableSlotsForSession(ctx, 10, dates, 3)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})

	t.Run("date count must match duration", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		svc := newPlanningForTest(users, newFakeEventRepo(), nil)

		slots, err := svc.GetAvailableSlotsForSession(ctx, 10, []time.Time{monday}, 3)
		require.NoError(t, err)
		assert.Empty(t, slots)
	})
}

func TestGetMonthAvailability(t *testing.T) {
	ctx := context.Background()
	// Clock pinned before the queried month so no day is past-filtered.
	clock := newFakeClock(time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC))

	t.Run("single-day index lists weekdays with free slots", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX, formateurY}}
		svc := newPlanningForTest(users, newFakeEventRepo(), clock)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
		assert.Empty(t, index.Err)
		assert.False(t, index.Fallback)
		// March 2026 has 22 weekdays.
		assert.Len(t, index.AvailableDays, 22)
		assert.Len(t, index.AvailableFormateurs, 2)
		assert.Empty(t, index.AvailableRanges)
		assert.Len(t, index.SlotsByDate["2026-03-02"], 17)
	})

	t.Run("multi-day index excludes windows touching weekends", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		svc := newPlanningForTest(users, newFakeEventRepo(), clock)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 3, 0)
		assert.Empty(t, index.Err)

		starts := make(map[string]bool)
		for _, r := range index.AvailableRanges {
			starts[r.Start] = true
			assert.Len(t, r.Dates, 3)
		}
		assert.True(t, starts["2026-03-02"], "Monday start must qualify")
		assert.True(t, starts["2026-03-04"], "Wednesday start must qualify")
		assert.False(t, starts["2026-03-05"], "Thursday start spans Saturday")
		assert.False(t, starts["2026-03-06"], "Friday start spans the weekend")
	})

	t.Run("trainer filter", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX, formateurY}}
		svc := newPlanningForTest(users, newFakeEventRepo(), clock)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, formateurY.ID)
		require.Len(t, index.AvailableFormateurs, 1)
		assert.Equal(t, formateurY.ID, index.AvailableFormateurs[0].ID)
	})

	t.Run("past days are filtered", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		midMonth := newFakeClock(time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC))
		svc := newPlanningForTest(users, newFakeEventRepo(), midMonth)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
		for _, day := range index.AvailableDays {
			assert.GreaterOrEqual(t, day, "2026-03-16")
		}
	})

	t.Run("query failure degrades to empty index", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
		events := newFakeEventRepo()
		events.queryErr = assert.AnError
		svc := newPlanningForTest(users, events, clock)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
		assert.NotEmpty(t, index.Err)
		assert.Empty(t, index.AvailableDays)
		assert.Empty(t, index.SlotsByDate)
	})

	t.Run("fallback pool is flagged in the index", func(t *testing.T) {
		users := &fakeUserRepo{competent: []domain.Formateur{competentZ}}
		svc := newPlanningForTest(users, newFakeEventRepo(), clock)

		index := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
		assert.True(t, index.Fallback)
	})
}

func TestGetMonthAvailability_CacheTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC))
	users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
	events := newFakeEventRepo()
	svc := newPlanningForTest(users, events, clock)

	first := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	require.Len(t, first.SlotsByDate["2026-03-02"], 17)

	// Book the whole Monday behind the cache's back.
	_, err := events.Create(ctx, domain.Event{
		FormateurID: formateurX.ID,
		Start:       time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC),
	}, nil)
	require.NoError(t, err)

	// Within TTL: stale result served.
	clock.Advance(time.Minute)
	stale := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.Len(t, stale.SlotsByDate["2026-03-02"], 17)

	// Past TTL: recomputed.
	clock.Advance(2 * time.Minute)
	fresh := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.Empty(t, fresh.SlotsByDate["2026-03-02"])

	// Explicit clear also bypasses a warm entry.
	_, err = events.Create(ctx, domain.Event{
		FormateurID: formateurX.ID,
		Start:       time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2026, 3, 3, 17, 30, 0, 0, time.UTC),
	}, nil)
	require.NoError(t, err)

	cached := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.Len(t, cached.SlotsByDate["2026-03-03"], 17, "still cached")

	svc.ClearCache()
	cleared := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.Empty(t, cleared.SlotsByDate["2026-03-03"])
}

func TestGetMonthAvailability_DayBoundaryBustsCache(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC))
	users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
	svc := NewPlanningService(users, newFakeEventRepo(), time.UTC, 24*time.Hour, clock.Now)

	before := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.Contains(t, before.AvailableDays, "2026-03-02")

	// Long TTL, but crossing midnight changes the key: March 2 is now past.
	clock.Advance(2 * time.Minute)
	after := svc.GetMonthAvailability(ctx, 10, 2026, time.March, 1, 0)
	assert.NotContains(t, after.AvailableDays, "2026-03-02")
}
