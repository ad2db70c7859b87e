package controllers

import (
	"net/http"

	"github.com/mparreirinha/expensetrackerapp/internal/dtos"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

type AuthController struct {
	authService    services.AuthService
	sessionService services.SessionService
}

func NewAuthController(auth services.AuthService, sessions services.SessionService) *AuthController {
	return &AuthController{authService: auth, sessionService: sessions}
}

// POST /auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req dtos.RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := c.authService.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dtos.MessageResponse{Message: "User created successfully"})
}

// POST /auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := c.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	issued, err := c.sessionService.IssueToken(r.Context(), user.Username)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LoginUserResponse{
		Token:     issued.Token,
		ExpiresIn: issued.Lifetime.Milliseconds(),
	})
}

// POST /auth/logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.sessionService.RevokeBySessionToken(r.Context(), r.Header.Get("Authorization")); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Logged out"})
}
