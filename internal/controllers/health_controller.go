package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mparreirinha/expensetrackerapp/internal/dtos"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

const healthCheckTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db       Pinger
	registry Pinger
}

func NewHealthController(db, registry Pinger) *HealthController {
	return &HealthController{db: db, registry: registry}
}

func (c *HealthController) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := c.db.Ping(ctx); err != nil {
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeUnavailable,
			"Database unreachable",
			nil,
			err,
		)
		return
	}
	if err := c.registry.Ping(ctx); err != nil {
		utils.RespondErrorWithCode(
			w,
			http.StatusServiceUnavailable,
			utils.ErrCodeUnavailable,
			"Session registry unreachable",
			nil,
			err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "OK"})
}
