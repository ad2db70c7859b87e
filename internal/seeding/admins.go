package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// AdminSeed describes the bootstrap administrator account.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedDefaultAdmin creates the admin account unless a user with that
// username already exists. It reports whether a row was inserted.
func SeedDefaultAdmin(
	ctx context.Context,
	userRepo repositories.UserRepository,
	hasher utils.PasswordHasher,
	seed AdminSeed,
) (bool, error) {
	if seed.Username == "" || seed.Email == "" || seed.Password == "" {
		return false, errors.New("admin seed needs username, email and password")
	}

	existing, err := userRepo.GetByUsername(ctx, seed.Username)
	if err != nil {
		return false, fmt.Errorf("error checking for existing admin: %w", err)
	}
	if existing != nil {
		utils.Logger.Infof("User %q already exists (role=%s); skipping admin seed.", existing.Username, existing.Role)
		return false, nil
	}

	hashedPass, err := hasher.Encode(seed.Password)
	if err != nil {
		return false, fmt.Errorf("failed to hash default admin password: %w", err)
	}

	admin := &models.User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: hashedPass,
		Role:         models.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to insert default admin: %w", err)
	}

	utils.Logger.Infof("Successfully seeded default admin (ID=%s, username=%s).", admin.ID, admin.Username)
	return true, nil
}
