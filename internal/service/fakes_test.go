package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vpierre44/formation-api/internal/domain"
)

// fakeEventRepo is an in-memory event store implementing both the planning
// and booking event repository interfaces.
type fakeEventRepo struct {
	mu     sync.Mutex
	nextID uint
	events map[uint]domain.Event

	// failOnInsert makes the nth Create call (1-based) fail.
	failOnInsert int
	insertCalls  int

	failDelete bool
	queryErr   error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		nextID: 1,
		events: make(map[uint]domain.Event),
	}
}

func (r *fakeEventRepo) Create(_ context.Context, event domain.Event, taskID *uint) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertCalls++
	if r.failOnInsert > 0 && r.insertCalls == r.failOnInsert {
		return domain.Event{}, errors.New("insert rejected")
	}

	event.ID = r.nextID
	if taskID != nil {
		event.TaskID = *taskID
	}
	r.nextID++
	r.events[event.ID] = event

	return event, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failDelete {
		return errors.New("delete rejected")
	}
	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) FindByID(_ context.Context, id uint) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return domain.Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) FindByFormateurIDs(_ context.Context, formateurIDs []uint, from, to time.Time) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.queryErr != nil {
		return nil, r.queryErr
	}

	ids := make(map[uint]struct{}, len(formateurIDs))
	for _, id := range formateurIDs {
		ids[id] = struct{}{}
	}

	var out []domain.Event
	for _, event := range r.events {
		if _, ok := ids[event.FormateurID]; !ok {
			continue
		}
		if event.Start.Before(to) && event.End.After(from) {
			out = append(out, event)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) FindByProjet(_ context.Context, projetID uint, kind domain.EventKind) ([]domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Event
	for _, event := range r.events {
		if event.ProjetID != projetID {
			continue
		}
		if kind != "" && event.Kind != kind {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (r *fakeEventRepo) FindByTaskAndProjet(_ context.Context, taskID, projetID uint) (domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if event.TaskID == taskID && event.ProjetID == projetID {
			return event, nil
		}
	}
	return domain.Event{}, ErrEventNotFound
}

func (r *fakeEventRepo) UpdateStagiaires(_ context.Context, id uint, stagiaires []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Stagiaires = stagiaires
	r.events[id] = event
	return nil
}

func (r *fakeEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *fakeEventRepo) all() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Event, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event)
	}
	return out
}

type fakeUserRepo struct {
	competent []domain.Formateur
	err       error
}

func (r *fakeUserRepo) FindCompetentUsers(_ context.Context, _ uint) ([]domain.Formateur, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.competent, nil
}

type fakeProjetRepo struct {
	mu      sync.Mutex
	projets map[uint]domain.Projet

	lieuPeriodeCalls int
	updateErr        error
}

func newFakeProjetRepo(projets ...domain.Projet) *fakeProjetRepo {
	m := make(map[uint]domain.Projet, len(projets))
	for _, p := range projets {
		m[p.ID] = p
	}
	return &fakeProjetRepo{projets: m}
}

func (r *fakeProjetRepo) FindByID(_ context.Context, id uint) (domain.Projet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	projet, ok := r.projets[id]
	if !ok {
		return domain.Projet{}, ErrProjetNotFound
	}
	return projet, nil
}

func (r *fakeProjetRepo) UpdateStagiaires(_ context.Context, id uint, stagiaires []uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	projet, ok := r.projets[id]
	if !ok {
		return ErrProjetNotFound
	}
	projet.Stagiaires = stagiaires
	r.projets[id] = projet
	return nil
}

func (r *fakeProjetRepo) UpdateLieuPeriode(_ context.Context, id uint, lieu, periode string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}
	projet, ok := r.projets[id]
	if !ok {
		return ErrProjetNotFound
	}
	projet.Lieu = lieu
	projet.Periode = periode
	r.projets[id] = projet
	r.lieuPeriodeCalls++
	return nil
}

type fakeTaskRepo struct {
	mu      sync.Mutex
	calls   int
	lastID  uint
	failure error
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id uint, _, _ string, _ uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failure != nil {
		return r.failure
	}
	r.calls++
	r.lastID = id
	return nil
}

// fakeClock is a manually advanced clock for cache TTL tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
