package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// UserQueryService resolves accounts for the request pipeline. Both lookups
// return ErrUserNotFound rather than a nil user.
type UserQueryService interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userQueryService struct {
	userRepo repositories.UserRepository
}

func NewUserQueryService(userRepo repositories.UserRepository) UserQueryService {
	return &userQueryService{userRepo: userRepo}
}

func (s *userQueryService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return user, nil
}

func (s *userQueryService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrUserNotFound
	}
	return user, nil
}
