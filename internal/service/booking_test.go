package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/planning"
)

func newBookingForTest(events *fakeEventRepo, projets *fakeProjetRepo, tasks *fakeTaskRepo) (*BookingService, *PlanningService) {
	users := &fakeUserRepo{competent: []domain.Formateur{formateurX}}
	planningSvc := newPlanningForTest(users, events, nil)
	return NewBookingService(events, projets, tasks, planningSvc, time.UTC), planningSvc
}

func wholeDaySlot(duration int, formateurs ...domain.Formateur) domain.Slot {
	slot := planning.SessionSlots(duration)[0]
	slot.Formateurs = formateurs
	slot.Count = len(formateurs)
	return slot
}

func businessDays(start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
	}
	return dates
}

func TestBookSession_CreatesOneEventPerDay(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée", Lieu: "Lyon", Stagiaires: []uint{21, 22}})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result, err := svc.BookSession(ctx, wholeDaySlot(3, formateurX), businessDays(monday, 3), 1, 7, 10)
	require.NoError(t, err)

	assert.Equal(t, formateurX.ID, result.FormateurID)
	require.Len(t, result.EventIDs, 3)
	require.Equal(t, 3, events.count())

	for i, event := range sortedByStart(events.all()) {
		day := monday.AddDate(0, 0, i)
		assert.Equal(t, day.Add(9*time.Hour), event.Start, "09:00 local-equivalent UTC")
		assert.Equal(t, day.Add(17*time.Hour), event.End)
		assert.Equal(t, domain.EventKindSession, event.Kind)
		assert.Equal(t, []uint{21, 22}, event.Stagiaires)
		assert.Equal(t, uint(7), event.ProjetID)
	}

	// Best-effort projet periode sync ran.
	projet, err := projets.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02 - 2026-03-04", projet.Periode)
}

func TestBookSession_RollbackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	events.failOnInsert = 3 // day 3 of 5 fails
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée"})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.BookSession(ctx, wholeDaySlot(5, formateurX), businessDays(monday, 5), 1, 7, 10)
	require.Error(t, err)

	assert.Equal(t, 0, events.count(), "no partial multi-day booking may remain")
}

func TestBookSession_InvalidWindows(t *testing.T) {
	ctx := context.Background()
	projets := newFakeProjetRepo(domain.Projet{ID: 7})
	svc, _ := newBookingForTest(newFakeEventRepo(), projets, &fakeTaskRepo{})

	friday := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)

	_, err := svc.BookSession(ctx, wholeDaySlot(3, formateurX), businessDays(friday, 3), 1, 7, 10)
	assert.ErrorIs(t, err, ErrInvalidDates, "weekend-spanning window")

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err = svc.BookSession(ctx, wholeDaySlot(3, formateurX), businessDays(monday, 2), 1, 7, 10)
	assert.ErrorIs(t, err, ErrInvalidDates, "date count below duration")

	_, err = svc.BookSession(ctx, wholeDaySlot(1), []time.Time{monday}, 1, 7, 10)
	assert.ErrorIs(t, err, ErrNoFormateur, "slot without formateurs")
}

func TestModifySession_DestroyThenRecreate(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée"})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	first, err := svc.BookSession(ctx, wholeDaySlot(3, formateurX), businessDays(monday, 3), 1, 7, 10)
	require.NoError(t, err)

	nextMonday := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	second, err := svc.ModifySession(ctx, wholeDaySlot(2, formateurX), businessDays(nextMonday, 2), 2, 7, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, events.count())
	for _, oldID := range first.EventIDs {
		assert.NotContains(t, second.EventIDs, oldID, "event ids must be disjoint after modification")
	}
}

func TestModifySession_NoExistingSession(t *testing.T) {
	ctx := context.Background()
	projets := newFakeProjetRepo(domain.Projet{ID: 7})
	svc, _ := newBookingForTest(newFakeEventRepo(), projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := svc.ModifySession(ctx, wholeDaySlot(1, formateurX), businessDays(monday, 1), 1, 7, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBookAppointment(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée", Stagiaires: []uint{21}})
	tasks := &fakeTaskRepo{}
	svc, _ := newBookingForTest(events, projets, tasks)

	slot := domain.Slot{StartTime: "09:00", EndTime: "09:30", Display: "09:00 - 09:30", DurationDays: 1, Formateurs: []domain.Formateur{formateurX}, Count: 1}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	result, err := svc.BookAppointment(ctx, slot, monday, 99, 7)
	require.NoError(t, err)
	require.Len(t, result.EventIDs, 1)

	event, err := events.FindByID(ctx, result.EventIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.EventKindAppointment, event.Kind)
	assert.Equal(t, monday.Add(9*time.Hour), event.Start)
	assert.Equal(t, monday.Add(9*time.Hour+30*time.Minute), event.End)
	assert.Equal(t, uint(99), event.TaskID)

	assert.Equal(t, 1, tasks.calls, "linked task patched")
	assert.Equal(t, uint(99), tasks.lastID)

	// The side channel is best-effort: a task failure must not fail booking.
	tasks.failure = assert.AnError
	_, err = svc.BookAppointment(ctx, slot, monday.AddDate(0, 0, 1), 100, 7)
	assert.NoError(t, err)
}

func TestModifyAppointment_ReplacesEvent(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée"})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	slot := domain.Slot{StartTime: "09:00", EndTime: "09:30", DurationDays: 1, Formateurs: []domain.Formateur{formateurX}}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	first, err := svc.BookAppointment(ctx, slot, monday, 99, 7)
	require.NoError(t, err)

	later := domain.Slot{StartTime: "14:00", EndTime: "14:30", DurationDays: 1, Formateurs: []domain.Formateur{formateurX}}
	second, err := svc.ModifyAppointment(ctx, first.EventIDs[0], later, monday, 99, 7)
	require.NoError(t, err)

	assert.NotEqual(t, first.EventIDs[0], second.EventIDs[0])
	assert.Equal(t, 1, events.count())

	_, err = events.FindByID(ctx, first.EventIDs[0])
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestDeleteAppointment(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée"})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	slot := domain.Slot{StartTime: "09:00", EndTime: "09:30", DurationDays: 1, Formateurs: []domain.Formateur{formateurX}}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	result, err := svc.BookAppointment(ctx, slot, monday, 99, 7)
	require.NoError(t, err)

	assert.True(t, svc.DeleteAppointment(ctx, result.EventIDs[0]))
	assert.False(t, svc.DeleteAppointment(ctx, result.EventIDs[0]), "second delete reports failure, never panics")
}

func TestGetExistingAppointment(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée"})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	slot := domain.Slot{StartTime: "09:00", EndTime: "09:30", DurationDays: 1, Formateurs: []domain.Formateur{formateurX}}
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	result, err := svc.BookAppointment(ctx, slot, monday, 99, 7)
	require.NoError(t, err)

	event, err := svc.GetExistingAppointment(ctx, 99, 7)
	require.NoError(t, err)
	assert.Equal(t, result.EventIDs[0], event.ID)

	_, err = svc.GetExistingAppointment(ctx, 98, 7)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestStagiaireSync(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(domain.Projet{ID: 7, Nom: "CAO avancée", Stagiaires: []uint{21, 22}})
	svc, _ := newBookingForTest(events, projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result, err := svc.BookSession(ctx, wholeDaySlot(2, formateurX), businessDays(monday, 2), 1, 7, 10)
	require.NoError(t, err)

	// Roster changes on the projet; push it onto the events.
	require.NoError(t, projets.UpdateStagiaires(ctx, 7, []uint{21, 22, 23}))
	svc.SyncProjetStagiaires(ctx, 7)

	for _, id := range result.EventIDs {
		event, err := events.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, []uint{21, 22, 23}, event.Stagiaires)
	}

	// Attendees diverge on one event; rebuild the roster as the union.
	require.NoError(t, events.UpdateStagiaires(ctx, result.EventIDs[0], []uint{21, 24}))
	svc.RebuildProjetStagiaires(ctx, 7)

	projet, err := projets.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{21, 22, 23, 24}, projet.Stagiaires)

	// Idempotent: running it again changes nothing.
	svc.RebuildProjetStagiaires(ctx, 7)
	again, err := projets.FindByID(ctx, 7)
	require.NoError(t, err)
	assert.ElementsMatch(t, projet.Stagiaires, again.Stagiaires)
}

func TestNoOverlapInvariant(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	projets := newFakeProjetRepo(
		domain.Projet{ID: 7, Nom: "CAO avancée"},
		domain.Projet{ID: 8, Nom: "BIM initiation"},
	)
	svc, planningSvc := newBookingForTest(events, projets, &fakeTaskRepo{})

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	// Book Monday-Tuesday for projet 7 through the availability path.
	slots, err := planningSvc.GetAvailableSlotsForSession(ctx, 10, businessDays(monday, 2), 2)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	_, err = svc.BookSession(ctx, slots[0], businessDays(monday, 2), 1, 7, 10)
	require.NoError(t, err)

	// The same window is no longer offered.
	slots, err = planningSvc.GetAvailableSlotsForSession(ctx, 10, businessDays(monday, 2), 2)
	require.NoError(t, err)
	assert.Empty(t, slots)

	// A disjoint window still is; book it for projet 8.
	wednesday := monday.AddDate(0, 0, 2)
	slots, err = planningSvc.GetAvailableSlotsForSession(ctx, 10, businessDays(wednesday, 2), 2)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	_, err = svc.BookSession(ctx, slots[0], businessDays(wednesday, 2), 2, 8, 10)
	require.NoError(t, err)

	// Every event pair for the formateur is non-overlapping.
	all := sortedByStart(events.all())
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			e1, e2 := all[i], all[j]
			ok := !e1.End.After(e2.Start) || !e2.End.After(e1.Start)
			assert.True(t, ok, "events %d and %d overlap", e1.ID, e2.ID)
		}
	}
}

func sortedByStart(events []domain.Event) []domain.Event {
	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}
