package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/sirupsen/logrus"
)

type UserAdminService interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type userAdminService struct {
	users    UserQueryService
	userRepo repositories.UserRepository
	sessions SessionService
}

func NewUserAdminService(
	users UserQueryService,
	userRepo repositories.UserRepository,
	sessions SessionService,
) UserAdminService {
	return &userAdminService{users: users, userRepo: userRepo, sessions: sessions}
}

func (s *userAdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *userAdminService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// DeleteUser refuses to delete admins. Sessions are revoked before the row is
// removed, so a registry outage leaves the account intact.
func (s *userAdminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.IsAdmin() {
		return fmt.Errorf("%w: admins cannot be deleted", utils.ErrForbidden)
	}

	if err := s.sessions.RevokeAllForSubject(ctx, user.Username); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	utils.Logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Admin deleted user")
	return nil
}
