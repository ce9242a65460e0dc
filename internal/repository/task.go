package repository

import (
	"context"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/repository/dao"
)

var ErrTaskNotFound = dao.ErrTaskNotFound

type TaskDAO interface {
	Update(ctx context.Context, id uint, patch map[string]interface{}) error
	FindByID(ctx context.Context, id uint) (dao.Task, error)
}

type TaskRepository struct {
	dao TaskDAO
}

func NewTaskRepository(dao TaskDAO) *TaskRepository {
	return &TaskRepository{
		dao: dao,
	}
}

// UpdateStatus patches the linked task after a rendez-vous booking. Callers
// treat failures as best-effort.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uint, status, description string, assignedTo uint) error {
	return r.dao.Update(ctx, id, map[string]interface{}{
		"status":      status,
		"description": description,
		"assigned_to": assignedTo,
	})
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (domain.Task, error) {
	task, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}

	return domain.Task{
		ID:          task.ID,
		ProjetID:    task.ProjetID,
		Status:      task.Status,
		Description: task.Description,
		AssignedTo:  task.AssignedTo,
	}, nil
}
