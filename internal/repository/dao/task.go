package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrTaskNotFound = errors.New("task not found")

// Task mirrors the external task tracker's table. The planning core only
// patches status/description/assignee best-effort after a rendez-vous is
// booked.
type Task struct {
	ID uint `gorm:"primaryKey"`

	ProjetID    uint   `gorm:"not null;index"`
	Status      string `gorm:"not null"`
	Description string
	AssignedTo  uint

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TaskDAO struct {
	db *gorm.DB
}

func NewTaskDAO(db *gorm.DB) *TaskDAO {
	return &TaskDAO{
		db: db,
	}
}

func (d *TaskDAO) Update(ctx context.Context, id uint, patch map[string]interface{}) error {
	result := d.db.WithContext(ctx).
		Model(&Task{}).
		Where("id = ?", id).
		Updates(patch)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (d *TaskDAO) FindByID(ctx context.Context, id uint) (Task, error) {
	var task Task

	result := d.db.WithContext(ctx).First(&task, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, result.Error
	}

	return task, nil
}
