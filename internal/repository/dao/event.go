package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Event struct {
	ID uint `gorm:"primaryKey"`

	Titre       string `gorm:"not null"`
	Description string

	// UTC instants. Local business rules convert through internal/planning.
	Start time.Time `gorm:"type:timestamp with time zone;not null;index"`
	End   time.Time `gorm:"type:timestamp with time zone;not null"`

	FormateurID uint  `gorm:"not null;index"`
	ProjetID    uint  `gorm:"index"`
	TaskID      *uint `gorm:"index"`

	Kind   string `gorm:"not null;index"` // "appointment" or "training_session"
	Status string `gorm:"not null;default:'planned'"`
	Lieu   string

	Stagiaires datatypes.JSONSlice[uint] `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}
	return event, nil
}

func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, result.Error
	}

	return event, nil
}

// FindByFormateurIDs returns every event owned by one of the formateurs
// intersecting [from, to). One batched query serves a whole month of
// availability computation.
func (d *EventDAO) FindByFormateurIDs(ctx context.Context, formateurIDs []uint, from, to time.Time) ([]Event, error) {
	if len(formateurIDs) == 0 {
		return []Event{}, nil
	}

	var events []Event
	result := d.db.WithContext(ctx).
		Where("formateur_id IN ?", formateurIDs).
		Where(`start < ? AND "end" > ?`, to, from).
		Order("start").
		Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByProjet(ctx context.Context, projetID uint, kind string) ([]Event, error) {
	var events []Event

	query := d.db.WithContext(ctx).Where("projet_id = ?", projetID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	result := query.Order("start").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) FindByTaskAndProjet(ctx context.Context, taskID, projetID uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).
		Where("task_id = ? AND projet_id = ?", taskID, projetID).
		First(&event)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error {
	result := d.db.WithContext(ctx).
		Model(&Event{}).
		Where("id = ?", id).
		Update("stagiaires", datatypes.NewJSONSlice(stagiaires))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
