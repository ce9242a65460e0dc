package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/planning"
	"github.com/vpierre44/formation-api/internal/repository"
)

var (
	ErrProjetNotFound  = repository.ErrProjetNotFound
	ErrNoFormateur     = errors.New("no formateur available for this slot")
	ErrInvalidDates    = errors.New("dates must be consecutive business days matching the duration")
	ErrSessionNotFound = errors.New("no session events found for this projet")
)

type BookingEventRepository interface {
	Create(ctx context.Context, event domain.Event, taskID *uint) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindByProjet(ctx context.Context, projetID uint, kind domain.EventKind) ([]domain.Event, error)
	FindByTaskAndProjet(ctx context.Context, taskID, projetID uint) (domain.Event, error)
	UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error
}

type BookingProjetRepository interface {
	FindByID(ctx context.Context, id uint) (domain.Projet, error)
	UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error
	UpdateLieuPeriode(ctx context.Context, id uint, lieu, periode string) error
}

type BookingTaskRepository interface {
	UpdateStatus(ctx context.Context, id uint, status, description string, assignedTo uint) error
}

// BookingService executes the side-effecting planning transitions: create
// the daily events of a session, roll them back on partial failure, replace
// events when a session changes, and keep projet rosters in sync with event
// attendee lists.
type BookingService struct {
	eventRepo  BookingEventRepository
	projetRepo BookingProjetRepository
	taskRepo   BookingTaskRepository
	planning   *PlanningService
	loc        *time.Location
}

func NewBookingService(
	eventRepo BookingEventRepository,
	projetRepo BookingProjetRepository,
	taskRepo BookingTaskRepository,
	planningSvc *PlanningService,
	loc *time.Location,
) *BookingService {
	if loc == nil {
		loc = time.Local
	}

	return &BookingService{
		eventRepo:  eventRepo,
		projetRepo: projetRepo,
		taskRepo:   taskRepo,
		planning:   planningSvc,
		loc:        loc,
	}
}

// insertEventsWithRollback inserts events one per date, sequentially and in
// date order. On any failure every event already inserted by this call is
// deleted before the original error is returned; a failed compensating
// delete is logged but not repaired further.
func (s *BookingService) insertEventsWithRollback(ctx context.Context, events []domain.Event, taskID *uint) ([]uint, error) {
	inserted := make([]uint, 0, len(events))

	for _, event := range events {
		created, err := s.eventRepo.Create(ctx, event, taskID)
		if err != nil {
			for _, id := range inserted {
				if delErr := s.eventRepo.Delete(ctx, id); delErr != nil {
					zap.L().Error("rollback delete failed, orphaned event remains",
						zap.Uint("event_id", id),
						zap.Error(delErr))
				}
			}
			return nil, fmt.Errorf("s.eventRepo.Create -> %w", err)
		}
		inserted = append(inserted, created.ID)
	}

	return inserted, nil
}

// pickFormateur applies the tie-break policy: first listed is first
// qualified. No load balancing.
func pickFormateur(slot domain.Slot) (domain.Formateur, error) {
	if len(slot.Formateurs) == 0 {
		return domain.Formateur{}, ErrNoFormateur
	}
	return slot.Formateurs[0], nil
}

// sessionEvents builds one whole-day event per date of the window.
func (s *BookingService) sessionEvents(projet domain.Projet, formateur domain.Formateur, slot domain.Slot, dates []time.Time, sessionNumber int) ([]domain.Event, error) {
	events := make([]domain.Event, 0, len(dates))
	for _, date := range dates {
		start, err := planning.ToUTC(date, slot.StartTime, s.loc)
		if err != nil {
			return nil, err
		}
		end, err := planning.ToUTC(date, slot.EndTime, s.loc)
		if err != nil {
			return nil, err
		}

		events = append(events, domain.Event{
			Titre:       fmt.Sprintf("Formation %s - session %d", projet.Nom, sessionNumber),
			Description: fmt.Sprintf("Session %d du projet %s", sessionNumber, projet.Nom),
			Start:       start,
			End:         end,
			FormateurID: formateur.ID,
			ProjetID:    projet.ID,
			Kind:        domain.EventKindSession,
			Status:      domain.EventStatusPlanned,
			Lieu:        projet.Lieu,
			Stagiaires:  projet.Stagiaires,
		})
	}
	return events, nil
}

// BookSession books a multi-day (or single-day) training session: the first
// free formateur of the slot gets one event per date, each carrying the
// projet's current stagiaire roster. Projet lieu/periode sync afterwards is
// best-effort.
func (s *BookingService) BookSession(ctx context.Context, slot domain.Slot, dates []time.Time, sessionNumber int, projetID, logicielID uint) (domain.BookingResult, error) {
	if len(dates) == 0 || len(dates) != slot.DurationDays {
		return domain.BookingResult{}, ErrInvalidDates
	}
	window, ok := planning.BusinessDayWindow(dates[0], len(dates))
	if !ok || !sameDates(window, dates) {
		return domain.BookingResult{}, ErrInvalidDates
	}

	formateur, err := pickFormateur(slot)
	if err != nil {
		return domain.BookingResult{}, err
	}

	projet, err := s.projetRepo.FindByID(ctx, projetID)
	if err != nil {
		return domain.BookingResult{}, fmt.Errorf("s.projetRepo.FindByID -> %w", err)
	}

	events, err := s.sessionEvents(projet, formateur, slot, window, sessionNumber)
	if err != nil {
		return domain.BookingResult{}, err
	}

	ids, err := s.insertEventsWithRollback(ctx, events, nil)
	if err != nil {
		return domain.BookingResult{}, err
	}

	s.syncProjetAfterBooking(ctx, projet, window)
	s.planning.ClearCache()

	return domain.BookingResult{FormateurID: formateur.ID, EventIDs: ids}, nil
}

// ModifySession replaces every event of the projet's session: delete all,
// then recreate through the same path as BookSession. Never patched in
// place.
func (s *BookingService) ModifySession(ctx context.Context, slot domain.Slot, dates []time.Time, sessionNumber int, projetID, logicielID uint) (domain.BookingResult, error) {
	existing, err := s.eventRepo.FindByProjet(ctx, projetID, domain.EventKindSession)
	if err != nil {
		return domain.BookingResult{}, fmt.Errorf("s.eventRepo.FindByProjet -> %w", err)
	}
	if len(existing) == 0 {
		return domain.BookingResult{}, ErrSessionNotFound
	}

	for _, event := range existing {
		if err = s.eventRepo.Delete(ctx, event.ID); err != nil {
			return domain.BookingResult{}, fmt.Errorf("s.eventRepo.Delete -> %w", err)
		}
	}

	return s.BookSession(ctx, slot, dates, sessionNumber, projetID, logicielID)
}

// BookAppointment books a single-day qualification rendez-vous and patches
// the linked task best-effort.
func (s *BookingService) BookAppointment(ctx context.Context, slot domain.Slot, date time.Time, taskID, projetID uint) (domain.BookingResult, error) {
	formateur, err := pickFormateur(slot)
	if err != nil {
		return domain.BookingResult{}, err
	}

	projet, err := s.projetRepo.FindByID(ctx, projetID)
	if err != nil {
		return domain.BookingResult{}, fmt.Errorf("s.projetRepo.FindByID -> %w", err)
	}

	start, err := planning.ToUTC(date, slot.StartTime, s.loc)
	if err != nil {
		return domain.BookingResult{}, err
	}
	end, err := planning.ToUTC(date, slot.EndTime, s.loc)
	if err != nil {
		return domain.BookingResult{}, err
	}

	event := domain.Event{
		Titre:       fmt.Sprintf("RDV qualification - %s", projet.Nom),
		Description: fmt.Sprintf("Rendez-vous de qualification du projet %s", projet.Nom),
		Start:       start,
		End:         end,
		FormateurID: formateur.ID,
		ProjetID:    projet.ID,
		Kind:        domain.EventKindAppointment,
		Status:      domain.EventStatusPlanned,
		Lieu:        projet.Lieu,
		Stagiaires:  projet.Stagiaires,
	}

	ids, err := s.insertEventsWithRollback(ctx, []domain.Event{event}, &taskID)
	if err != nil {
		return domain.BookingResult{}, err
	}

	s.updateTaskAfterBooking(ctx, taskID, formateur, date, slot)
	s.planning.ClearCache()

	return domain.BookingResult{FormateurID: formateur.ID, EventIDs: ids}, nil
}

// ModifyAppointment replaces an existing rendez-vous: delete, then book
// again on the new slot/date.
func (s *BookingService) ModifyAppointment(ctx context.Context, eventID uint, slot domain.Slot, date time.Time, taskID, projetID uint) (domain.BookingResult, error) {
	if _, err := s.eventRepo.FindByID(ctx, eventID); err != nil {
		return domain.BookingResult{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		return domain.BookingResult{}, fmt.Errorf("s.eventRepo.Delete -> %w", err)
	}

	return s.BookAppointment(ctx, slot, date, taskID, projetID)
}

// DeleteAppointment removes one rendez-vous. It reports success or failure
// and never returns an error.
func (s *BookingService) DeleteAppointment(ctx context.Context, eventID uint) bool {
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		zap.L().Warn("delete appointment failed",
			zap.Uint("event_id", eventID),
			zap.Error(err))
		return false
	}

	s.planning.ClearCache()
	return true
}

// GetExistingAppointment finds the rendez-vous linked to a task within a
// projet.
func (s *BookingService) GetExistingAppointment(ctx context.Context, taskID, projetID uint) (domain.Event, error) {
	event, err := s.eventRepo.FindByTaskAndProjet(ctx, taskID, projetID)
	if err != nil {
		return domain.Event{}, err
	}

	return event, nil
}

// SyncProjetStagiaires pushes the projet's roster onto the attendee list of
// every one of its events. Idempotent; errors are logged, not raised.
func (s *BookingService) SyncProjetStagiaires(ctx context.Context, projetID uint) {
	projet, err := s.projetRepo.FindByID(ctx, projetID)
	if err != nil {
		zap.L().Warn("stagiaire sync skipped", zap.Uint("projet_id", projetID), zap.Error(err))
		return
	}

	events, err := s.eventRepo.FindByProjet(ctx, projetID, "")
	if err != nil {
		zap.L().Warn("stagiaire sync skipped", zap.Uint("projet_id", projetID), zap.Error(err))
		return
	}

	for _, event := range events {
		if err = s.eventRepo.UpdateStagiaires(ctx, event.ID, projet.Stagiaires); err != nil {
			zap.L().Warn("stagiaire sync failed for event",
				zap.Uint("event_id", event.ID),
				zap.Error(err))
		}
	}
}

// RebuildProjetStagiaires rebuilds the projet roster as the union of the
// attendee lists across its events. Idempotent; errors are logged, not
// raised.
func (s *BookingService) RebuildProjetStagiaires(ctx context.Context, projetID uint) {
	events, err := s.eventRepo.FindByProjet(ctx, projetID, "")
	if err != nil {
		zap.L().Warn("stagiaire rebuild skipped", zap.Uint("projet_id", projetID), zap.Error(err))
		return
	}

	seen := make(map[uint]struct{})
	var union []uint
	for _, event := range events {
		for _, id := range event.Stagiaires {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}

	if err = s.projetRepo.UpdateStagiaires(ctx, projetID, union); err != nil {
		zap.L().Warn("stagiaire rebuild failed", zap.Uint("projet_id", projetID), zap.Error(err))
	}
}

// syncProjetAfterBooking refreshes projet lieu/periode from the booked
// window. Best-effort: a failure never fails the booking.
func (s *BookingService) syncProjetAfterBooking(ctx context.Context, projet domain.Projet, window []time.Time) {
	periode := fmt.Sprintf("%s - %s",
		window[0].Format(planning.DateLayout),
		window[len(window)-1].Format(planning.DateLayout))

	if err := s.projetRepo.UpdateLieuPeriode(ctx, projet.ID, projet.Lieu, periode); err != nil {
		zap.L().Warn("projet lieu/periode sync failed",
			zap.Uint("projet_id", projet.ID),
			zap.Error(err))
	}
}

// updateTaskAfterBooking patches the linked task. Best-effort side channel.
func (s *BookingService) updateTaskAfterBooking(ctx context.Context, taskID uint, formateur domain.Formateur, date time.Time, slot domain.Slot) {
	description := fmt.Sprintf("RDV planifié le %s (%s) avec %s %s",
		date.Format(planning.DateLayout), slot.Display, formateur.Prenom, formateur.Nom)

	if err := s.taskRepo.UpdateStatus(ctx, taskID, "planifie", description, formateur.ID); err != nil {
		zap.L().Warn("task status update failed",
			zap.Uint("task_id", taskID),
			zap.Error(err))
	}
}
