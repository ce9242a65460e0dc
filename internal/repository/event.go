package repository

import (
	"context"
	"time"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindByFormateurIDs(ctx context.Context, formateurIDs []uint, from, to time.Time) ([]dao.Event, error)
	FindByProjet(ctx context.Context, projetID uint, kind string) ([]dao.Event, error)
	FindByTaskAndProjet(ctx context.Context, taskID, projetID uint) (dao.Event, error)
	UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	var taskID uint
	if e.TaskID != nil {
		taskID = *e.TaskID
	}

	return domain.Event{
		ID:          e.ID,
		Titre:       e.Titre,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		FormateurID: e.FormateurID,
		ProjetID:    e.ProjetID,
		TaskID:      taskID,
		Kind:        domain.EventKind(e.Kind),
		Status:      domain.EventStatus(e.Status),
		Lieu:        e.Lieu,
		Stagiaires:  []uint(e.Stagiaires),
	}
}

func (r *EventRepository) domainToDao(e domain.Event, taskID *uint) dao.Event {
	return dao.Event{
		ID:          e.ID,
		Titre:       e.Titre,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		FormateurID: e.FormateurID,
		ProjetID:    e.ProjetID,
		TaskID:      taskID,
		Kind:        string(e.Kind),
		Status:      string(e.Status),
		Lieu:        e.Lieu,
		Stagiaires:  e.Stagiaires,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event, taskID *uint) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event, taskID))
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	return r.dao.Delete(ctx, id)
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	event, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(event), nil
}

func (r *EventRepository) FindByFormateurIDs(ctx context.Context, formateurIDs []uint, from, to time.Time) ([]domain.Event, error) {
	rows, err := r.dao.FindByFormateurIDs(ctx, formateurIDs, from, to)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, r.daoToDomain(row))
	}

	return events, nil
}

func (r *EventRepository) FindByProjet(ctx context.Context, projetID uint, kind domain.EventKind) ([]domain.Event, error) {
	rows, err := r.dao.FindByProjet(ctx, projetID, string(kind))
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, r.daoToDomain(row))
	}

	return events, nil
}

func (r *EventRepository) FindByTaskAndProjet(ctx context.Context, taskID, projetID uint) (domain.Event, error) {
	event, err := r.dao.FindByTaskAndProjet(ctx, taskID, projetID)
	if err != nil {
		return domain.Event{}, err
	}

	return r.daoToDomain(event), nil
}

func (r *EventRepository) UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error {
	return r.dao.UpdateStagiaires(ctx, id, stagiaires)
}
