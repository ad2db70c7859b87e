package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mparreirinha/expensetrackerapp/internal/dtos"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

type UserAdminController struct {
	adminService services.UserAdminService
}

func NewUserAdminController(admin services.UserAdminService) *UserAdminController {
	return &UserAdminController{adminService: admin}
}

// GET /admin/users
func (c *UserAdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.adminService.ListUsers(r.Context())
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserAdminList(users))
}

// GET /admin/users/{id}
func (c *UserAdminController) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	user, err := c.adminService.GetUser(r.Context(), id)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.NewUserAdminFromModel(*user))
}

// DELETE /admin/users/{id}
func (c *UserAdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userIDFromPath(w, r)
	if !ok {
		return
	}
	if err := c.adminService.DeleteUser(r.Context(), id); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid user id", nil, err)
		return uuid.Nil, false
	}
	return id, true
}
