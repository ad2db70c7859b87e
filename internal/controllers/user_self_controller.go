package controllers

import (
	"net/http"

	"github.com/mparreirinha/expensetrackerapp/internal/dtos"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

type UserSelfController struct {
	selfService services.UserSelfService
}

func NewUserSelfController(self services.UserSelfService) *UserSelfController {
	return &UserSelfController{selfService: self}
}

// GET /me
func (c *UserSelfController) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	user, err := c.selfService.GetMe(r.Context(), p.Username)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserFromModel(*user))
}

// POST /me/change-password
func (c *UserSelfController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	var req dtos.ChangePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := c.selfService.ChangePassword(r.Context(), p.Username, p.TokenID, req.OldPassword, req.NewPassword)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{Message: "Password changed; please log in again"})
}

// DELETE /me
func (c *UserSelfController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principalOrUnauthorized(w, r)
	if !ok {
		return
	}
	if err := c.selfService.DeleteSelf(r.Context(), p.Username); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
