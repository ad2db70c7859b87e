package dtos

import (
	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
)

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required,max=72"`
	NewPassword string `json:"new_password" validate:"required,max=72"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

func NewUserFromModel(u models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}

// UserAdminResponse is the admin view of an account; it exposes the role.
type UserAdminResponse struct {
	ID       uuid.UUID       `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     models.RoleType `json:"role"`
}

func NewUserAdminFromModel(u models.User) UserAdminResponse {
	return UserAdminResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func NewUserAdminList(users []*models.User) []UserAdminResponse {
	out := make([]UserAdminResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserAdminFromModel(*u))
	}
	return out
}
