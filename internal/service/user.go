package service

import (
	"context"
	"fmt"

	"github.com/vpierre44/formation-api/internal/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	AddCompetence(ctx context.Context, competence domain.Competence) (domain.Competence, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// AddCompetence tags a user as mastering a logiciel at a level; this is
// what feeds the trainer qualification query.
func (s *UserService) AddCompetence(ctx context.Context, competence domain.Competence) (domain.Competence, error) {
	created, err := s.repo.AddCompetence(ctx, competence)
	if err != nil {
		return domain.Competence{}, fmt.Errorf("s.repo.AddCompetence -> %w", err)
	}

	return created, nil
}
