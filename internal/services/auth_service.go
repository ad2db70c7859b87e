package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// AuthService registers accounts and checks credentials against the local
// credential store. It does not issue tokens; see SessionService.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	hasher   utils.PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(userRepo repositories.UserRepository, hasher utils.PasswordHasher) AuthService {
	return &authService{userRepo: userRepo, hasher: hasher}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, utils.ErrUsernameTaken
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, utils.ErrEmailTaken
	}

	hash, err := s.hasher.Encode(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	// A concurrent registration can still win the race; the store maps its
	// unique violation to the same sentinel errors.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.Logger.WithField("username", username).Info("User registered")
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown username and
// a wrong password. Unknown usernames still pay for one hash comparison.
func (s *authService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		s.hasher.Matches(password, s.dummyPasswordHash())
		return nil, utils.ErrInvalidCredentials
	}
	if !s.hasher.Matches(password, user.PasswordHash) {
		return nil, utils.ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Encode("not-a-real-password")
		if err != nil {
			utils.Logger.WithError(err).Warn("Failed to build dummy password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
