package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/planning"
	"github.com/vpierre44/formation-api/internal/repository"
)

var (
	ErrUserNotFound  = repository.ErrUserNotFound
	ErrEventNotFound = repository.ErrEventNotFound
)

type PlanningUserRepository interface {
	FindCompetentUsers(ctx context.Context, logicielID uint) ([]domain.Formateur, error)
}

type PlanningEventRepository interface {
	FindByFormateurIDs(ctx context.Context, formateurIDs []uint, from, to time.Time) ([]domain.Event, error)
}

// PlanningService answers availability questions: per-day slots, multi-day
// session slots, and the cached month-wide index. It never mutates
// persisted state.
type PlanningService struct {
	userRepo  PlanningUserRepository
	eventRepo PlanningEventRepository
	loc       *time.Location
	now       func() time.Time
	cache     *availabilityCache
}

func NewPlanningService(
	userRepo PlanningUserRepository,
	eventRepo PlanningEventRepository,
	loc *time.Location,
	cacheTTL time.Duration,
	now func() time.Time,
) *PlanningService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}

	return &PlanningService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		loc:       loc,
		now:       now,
		cache:     newAvailabilityCache(cacheTTL, now),
	}
}

// ResolveTrainerPool returns the users eligible to deliver the logiciel:
// competent users whose fonction is "formateur". When no user carries the
// formateur tag but competent users exist, the whole competent set is
// returned with Fallback set, so a booking stays possible on incomplete
// data. An empty pool is a normal answer, not an error.
func (s *PlanningService) ResolveTrainerPool(ctx context.Context, logicielID uint) (domain.TrainerPool, error) {
	competent, err := s.userRepo.FindCompetentUsers(ctx, logicielID)
	if err != nil {
		return domain.TrainerPool{}, fmt.Errorf("s.userRepo.FindCompetentUsers -> %w", err)
	}

	var formateurs []domain.Formateur
	for _, f := range competent {
		if f.Fonction == "formateur" {
			formateurs = append(formateurs, f)
		}
	}

	if len(formateurs) == 0 && len(competent) > 0 {
		return domain.TrainerPool{Formateurs: competent, Fallback: true}, nil
	}
	if formateurs == nil {
		formateurs = []domain.Formateur{}
	}

	return domain.TrainerPool{Formateurs: formateurs}, nil
}

// busyByFormateur partitions events into per-formateur busy intervals.
func busyByFormateur(events []domain.Event) map[uint][]planning.Interval {
	busy := make(map[uint][]planning.Interval)
	for _, ev := range events {
		busy[ev.FormateurID] = append(busy[ev.FormateurID], planning.Interval{
			Start: ev.Start,
			End:   ev.End,
		})
	}
	return busy
}

// GetAvailableSlots resolves the 17 half-hour slots of one day against the
// trainer pool of a logiciel. A slot is kept when at least one formateur
// has no conflicting event.
func (s *PlanningService) GetAvailableSlots(ctx context.Context, logicielID uint, date time.Time) ([]domain.Slot, error) {
	pool, err := s.ResolveTrainerPool(ctx, logicielID)
	if err != nil {
		return nil, err
	}
	if len(pool.Formateurs) == 0 {
		return []domain.Slot{}, nil
	}

	dayStart, err := planning.ToUTC(date, planning.DayStart, s.loc)
	if err != nil {
		return nil, err
	}
	dayEnd, err := planning.ToUTC(date, planning.LastSlotEnd, s.loc)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindByFormateurIDs(ctx, formateurIDs(pool.Formateurs), dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("s.eventRepo.FindByFormateurIDs -> %w", err)
	}
	busy := busyByFormateur(events)

	return s.resolveDaySlots(pool.Formateurs, busy, date)
}

func (s *PlanningService) resolveDaySlots(formateurs []domain.Formateur, busy map[uint][]planning.Interval, date time.Time) ([]domain.Slot, error) {
	available := make([]domain.Slot, 0, 17)
	for _, slot := range planning.DailySlots() {
		var free []domain.Formateur
		for _, f := range formateurs {
			conflict, err := planning.SlotConflicts(busy[f.ID], date, slot.StartTime, slot.EndTime, s.loc)
			if err != nil {
				return nil, err
			}
			if !conflict {
				free = append(free, f)
			}
		}
		if len(free) > 0 {
			slot.Formateurs = free
			slot.Count = len(free)
			available = append(available, slot)
		}
	}
	return available, nil
}

// GetAvailableSlotsForSession evaluates the whole-day session slot over the
// given dates. The dates must form a window of exactly duration consecutive
// business days; otherwise the result is empty, which is the canonical
// "not bookable" signal.
func (s *PlanningService) GetAvailableSlotsForSession(ctx context.Context, logicielID uint, dates []time.Time, duration int) ([]domain.Slot, error) {
	if len(dates) == 0 || duration < 1 || len(dates) != duration {
		return []domain.Slot{}, nil
	}
	if duration == 1 {
		return s.GetAvailableSlots(ctx, logicielID, dates[0])
	}

	window, ok := planning.BusinessDayWindow(dates[0], duration)
	if !ok || !sameDates(window, dates) {
		return []domain.Slot{}, nil
	}

	pool, err := s.ResolveTrainerPool(ctx, logicielID)
	if err != nil {
		return nil, err
	}
	if len(pool.Formateurs) == 0 {
		return []domain.Slot{}, nil
	}

	from, err := planning.ToUTC(window[0], planning.DayStart, s.loc)
	if err != nil {
		return nil, err
	}
	to, err := planning.ToUTC(window[len(window)-1], planning.DayEnd, s.loc)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindByFormateurIDs(ctx, formateurIDs(pool.Formateurs), from, to)
	if err != nil {
		return nil, fmt.Errorf("s.eventRepo.FindByFormateurIDs -> %w", err)
	}
	busy := busyByFormateur(events)

	available := make([]domain.Slot, 0, 1)
	for _, slot := range planning.SessionSlots(duration) {
		free, err := s.formateursFreeForWindow(pool.Formateurs, busy, window, slot)
		if err != nil {
			return nil, err
		}
		if len(free) > 0 {
			slot.Formateurs = free
			slot.Count = len(free)
			available = append(available, slot)
		}
	}

	return available, nil
}

// formateursFreeForWindow keeps the formateurs with zero conflicts on every
// date of the window.
func (s *PlanningService) formateursFreeForWindow(formateurs []domain.Formateur, busy map[uint][]planning.Interval, window []time.Time, slot domain.Slot) ([]domain.Formateur, error) {
	var free []domain.Formateur
	for _, f := range formateurs {
		ok := true
		for _, day := range window {
			conflict, err := planning.SlotConflicts(busy[f.ID], day, slot.StartTime, slot.EndTime, s.loc)
			if err != nil {
				return nil, err
			}
			if conflict {
				ok = false
				break
			}
		}
		if ok {
			free = append(free, f)
		}
	}
	return free, nil
}

// GetMonthAvailability builds (or serves from cache) the availability index
// for a calendar month. Query failures degrade to the empty index with the
// error recorded; a calendar should render, just empty.
func (s *PlanningService) GetMonthAvailability(ctx context.Context, logicielID uint, year int, month time.Month, duration int, formateurID uint) domain.AvailabilityIndex {
	key := availabilityKey{
		LogicielID:  logicielID,
		Year:        year,
		Month:       month,
		Duration:    duration,
		FormateurID: formateurFilterKey(formateurID),
		Today:       planning.DateOf(s.now().In(s.loc)).Format(planning.DateLayout),
	}

	if index, ok := s.cache.get(key); ok {
		return index
	}

	index := s.computeMonthAvailability(ctx, logicielID, year, month, duration, formateurID)
	s.cache.put(key, index)

	return index
}

func (s *PlanningService) computeMonthAvailability(ctx context.Context, logicielID uint, year int, month time.Month, duration int, formateurID uint) domain.AvailabilityIndex {
	pool, err := s.ResolveTrainerPool(ctx, logicielID)
	if err != nil {
		zap.L().Error("resolve trainer pool failed", zap.Uint("logiciel_id", logicielID), zap.Error(err))
		return domain.EmptyAvailabilityIndex(err.Error())
	}

	formateurs := pool.Formateurs
	if formateurID != 0 {
		formateurs = filterFormateur(formateurs, formateurID)
	}
	if len(formateurs) == 0 {
		return domain.EmptyAvailabilityIndex("")
	}

	days := planning.MonthDays(year, month, s.loc)

	// Batch the whole month (padded by the window length so multi-day
	// ranges starting near month end see their events) in one query.
	from, convErr := planning.ToUTC(days[0], planning.DayStart, s.loc)
	if convErr != nil {
		return domain.EmptyAvailabilityIndex(convErr.Error())
	}
	to, convErr := planning.ToUTC(days[len(days)-1].AddDate(0, 0, duration), planning.LastSlotEnd, s.loc)
	if convErr != nil {
		return domain.EmptyAvailabilityIndex(convErr.Error())
	}

	events, err := s.eventRepo.FindByFormateurIDs(ctx, formateurIDs(formateurs), from, to)
	if err != nil {
		zap.L().Error("batch event query failed",
			zap.Uint("logiciel_id", logicielID),
			zap.Int("year", year),
			zap.String("month", month.String()),
			zap.Error(err))
		return domain.EmptyAvailabilityIndex(fmt.Sprintf("s.eventRepo.FindByFormateurIDs -> %v", err))
	}
	busy := busyByFormateur(events)

	index := domain.AvailabilityIndex{
		AvailableDays:       []string{},
		AvailableRanges:     []domain.DateRange{},
		AvailableFormateurs: formateurs,
		SlotsByDate:         map[string][]domain.Slot{},
		Fallback:            pool.Fallback,
	}

	today := planning.DateOf(s.now().In(s.loc))

	for _, day := range days {
		if !planning.IsBusinessDay(day) || day.Before(today) {
			continue
		}
		dateKey := day.Format(planning.DateLayout)

		if duration <= 1 {
			slots, err := s.resolveDaySlots(formateurs, busy, day)
			if err != nil {
				return domain.EmptyAvailabilityIndex(err.Error())
			}
			// Loose day policy for single-day sessions: any free slot
			// makes the day available.
			if len(slots) > 0 {
				index.SlotsByDate[dateKey] = slots
				index.AvailableDays = append(index.AvailableDays, dateKey)
			}
			continue
		}

		window, ok := planning.BusinessDayWindow(day, duration)
		if !ok {
			continue
		}

		var rangeSlots []domain.Slot
		for _, slot := range planning.SessionSlots(duration) {
			free, err := s.formateursFreeForWindow(formateurs, busy, window, slot)
			if err != nil {
				return domain.EmptyAvailabilityIndex(err.Error())
			}
			if len(free) > 0 {
				slot.Formateurs = free
				slot.Count = len(free)
				rangeSlots = append(rangeSlots, slot)
			}
		}
		if len(rangeSlots) == 0 {
			continue
		}

		index.SlotsByDate[dateKey] = rangeSlots
		index.AvailableRanges = append(index.AvailableRanges, domain.DateRange{
			Start: dateKey,
			End:   window[len(window)-1].Format(planning.DateLayout),
			Dates: formatDates(window),
		})

		// Strict day policy for multi-day rendering: the day counts only
		// when its slots chain over the whole business day.
		if planning.FullDayCoverage(rangeSlots, planning.DayStart, planning.DayEnd) {
			index.AvailableDays = append(index.AvailableDays, dateKey)
		}
	}

	return index
}

// ClearCache unconditionally empties the availability cache. Called at
// startup so pre-restart entries are never served.
func (s *PlanningService) ClearCache() {
	s.cache.clear()
}

func formateurIDs(formateurs []domain.Formateur) []uint {
	ids := make([]uint, 0, len(formateurs))
	for _, f := range formateurs {
		ids = append(ids, f.ID)
	}
	return ids
}

func filterFormateur(formateurs []domain.Formateur, id uint) []domain.Formateur {
	for _, f := range formateurs {
		if f.ID == id {
			return []domain.Formateur{f}
		}
	}
	return nil
}

func formateurFilterKey(id uint) string {
	if id == 0 {
		return "all"
	}
	return fmt.Sprintf("%d", id)
}

func formatDates(window []time.Time) []string {
	dates := make([]string, 0, len(window))
	for _, d := range window {
		dates = append(dates, d.Format(planning.DateLayout))
	}
	return dates
}

func sameDates(a []time.Time, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !planning.DateOf(a[i]).Equal(planning.DateOf(b[i])) {
			return false
		}
	}
	return true
}
