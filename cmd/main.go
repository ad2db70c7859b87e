package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mparreirinha/expensetrackerapp/internal/app"
	"github.com/mparreirinha/expensetrackerapp/internal/config"
	"github.com/mparreirinha/expensetrackerapp/internal/seeding"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

const shutdownTimeout = 30 * time.Second

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.SeedAdmin {
		_, err := seeding.SeedDefaultAdmin(ctx, application.UserRepo, application.Hasher, seeding.AdminSeed{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed default admin")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		utils.Logger.Info("Shutdown signal received")
	case err := <-serverErr:
		utils.Logger.WithError(err).Error("Server error")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Failed to shut down server")
	}
	utils.Logger.Warn("Server stopped")
}
