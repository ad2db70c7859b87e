package dtos

import "strings"

// RegisterUserRequest's password max counts runes. The 72-byte bcrypt limit
// is enforced by the hasher.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// Normalize trims the identifying fields before they are validated.
func (r *RegisterUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
}

type LoginUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r *LoginUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

// LoginUserResponse carries the bearer token and its lifetime in milliseconds.
type LoginUserResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
