package repository

import (
	"context"

	"gorm.io/datatypes"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/repository/dao"
)

var ErrProjetNotFound = dao.ErrProjetNotFound

type ProjetDAO interface {
	Insert(ctx context.Context, projet dao.Projet) (dao.Projet, error)
	FindByID(ctx context.Context, id uint) (dao.Projet, error)
	Update(ctx context.Context, id uint, patch map[string]interface{}) error
}

type ProjetRepository struct {
	dao ProjetDAO
}

func NewProjetRepository(dao ProjetDAO) *ProjetRepository {
	return &ProjetRepository{
		dao: dao,
	}
}

func (r *ProjetRepository) daoToDomain(p dao.Projet) domain.Projet {
	return domain.Projet{
		ID:         p.ID,
		Nom:        p.Nom,
		LogicielID: p.LogicielID,
		Lieu:       p.Lieu,
		Periode:    p.Periode,
		Stagiaires: []uint(p.Stagiaires),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r *ProjetRepository) Create(ctx context.Context, projet domain.Projet) (domain.Projet, error) {
	created, err := r.dao.Insert(ctx, dao.Projet{
		Nom:        projet.Nom,
		LogicielID: projet.LogicielID,
		Lieu:       projet.Lieu,
		Periode:    projet.Periode,
		Stagiaires: datatypes.NewJSONSlice(projet.Stagiaires),
	})
	if err != nil {
		return domain.Projet{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *ProjetRepository) FindByID(ctx context.Context, id uint) (domain.Projet, error) {
	projet, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Projet{}, err
	}

	return r.daoToDomain(projet), nil
}

func (r *ProjetRepository) UpdateStagiaires(ctx context.Context, id uint, stagiaires []uint) error {
	return r.dao.Update(ctx, id, map[string]interface{}{
		"stagiaires": datatypes.NewJSONSlice(stagiaires),
	})
}

func (r *ProjetRepository) UpdateLieuPeriode(ctx context.Context, id uint, lieu, periode string) error {
	return r.dao.Update(ctx, id, map[string]interface{}{
		"lieu":    lieu,
		"periode": periode,
	})
}
