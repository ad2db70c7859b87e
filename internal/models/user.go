package models

import (
	"time"

	"github.com/google/uuid"
)

type RoleType string

const (
	RoleUser  RoleType = "USER"
	RoleAdmin RoleType = "ADMIN"
)

// User is an account in the local credential store. Username doubles as the
// session subject carried in tokens.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize to JSON
	Role         RoleType  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
