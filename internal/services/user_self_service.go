package services

import (
	"context"
	"fmt"

	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// UserSelfService covers what an authenticated user may do to their own
// account.
type UserSelfService interface {
	GetMe(ctx context.Context, username string) (*models.User, error)
	ChangePassword(ctx context.Context, username, tokenID, oldPassword, newPassword string) error
	DeleteSelf(ctx context.Context, username string) error
}

type userSelfService struct {
	users    UserQueryService
	userRepo repositories.UserRepository
	hasher   utils.PasswordHasher
	sessions SessionService
}

func NewUserSelfService(
	users UserQueryService,
	userRepo repositories.UserRepository,
	hasher utils.PasswordHasher,
	sessions SessionService,
) UserSelfService {
	return &userSelfService{
		users:    users,
		userRepo: userRepo,
		hasher:   hasher,
		sessions: sessions,
	}
}

func (s *userSelfService) GetMe(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// ChangePassword revokes the session that made the request once the new hash
// is stored; the client logs in again with the new password.
func (s *userSelfService) ChangePassword(
	ctx context.Context,
	username, tokenID, oldPassword, newPassword string,
) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !s.hasher.Matches(oldPassword, user.PasswordHash) {
		return utils.ErrInvalidCredentials
	}

	hash, err := s.hasher.Encode(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	utils.Logger.WithField("username", username).Info("Password changed")
	return s.sessions.RevokeOne(ctx, username, tokenID)
}

// DeleteSelf revokes every session first. If the registry is unreachable the
// account is left in place.
func (s *userSelfService) DeleteSelf(ctx context.Context, username string) error {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForSubject(ctx, user.Username); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	utils.Logger.WithField("username", username).Info("User deleted own account")
	return nil
}
