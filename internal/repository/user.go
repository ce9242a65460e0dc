package repository

import (
	"context"
	"fmt"

	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	InsertCompetence(ctx context.Context, competence dao.Competence) (dao.Competence, error)
	FindCompetentUsers(ctx context.Context, logicielID uint) ([]dao.CompetentUser, error)
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Prenom:    u.Prenom,
		Nom:       u.Nom,
		Avatar:    u.Avatar,
		Fonction:  u.Fonction,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:    user.Email,
		Password: user.Password,
		Prenom:   user.Prenom,
		Nom:      user.Nom,
		Avatar:   user.Avatar,
		Fonction: user.Fonction,
	})
	if err != nil {
		return domain.User{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	user, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	return r.daoToDomain(user), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}

	return r.daoToDomain(user), nil
}

func (r *UserRepository) AddCompetence(ctx context.Context, competence domain.Competence) (domain.Competence, error) {
	created, err := r.dao.InsertCompetence(ctx, dao.Competence{
		UserID:     competence.UserID,
		LogicielID: competence.LogicielID,
		Niveau:     competence.Niveau,
	})
	if err != nil {
		return domain.Competence{}, fmt.Errorf("r.dao.InsertCompetence -> %w", err)
	}

	return domain.Competence{
		ID:         created.ID,
		UserID:     created.UserID,
		LogicielID: created.LogicielID,
		Niveau:     created.Niveau,
	}, nil
}

// FindCompetentUsers projects the qualification rows for a logiciel into
// formateur candidates. No fonction filtering happens here.
func (r *UserRepository) FindCompetentUsers(ctx context.Context, logicielID uint) ([]domain.Formateur, error) {
	rows, err := r.dao.FindCompetentUsers(ctx, logicielID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindCompetentUsers -> %w", err)
	}

	formateurs := make([]domain.Formateur, 0, len(rows))
	for _, row := range rows {
		formateurs = append(formateurs, domain.Formateur{
			ID:       row.UserID,
			Prenom:   row.Prenom,
			Nom:      row.Nom,
			Email:    row.Email,
			Avatar:   row.Avatar,
			Fonction: row.Fonction,
			Niveau:   row.Niveau,
		})
	}

	return formateurs, nil
}
