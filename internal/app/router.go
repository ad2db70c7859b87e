package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mparreirinha/expensetrackerapp/internal/controllers"
	"github.com/mparreirinha/expensetrackerapp/internal/middleware"
	"github.com/mparreirinha/expensetrackerapp/internal/routes"
	"github.com/rs/cors"
)

const CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

// Router builds the HTTP surface wrapped in CORS.
func (a *App) Router() http.Handler {
	healthController := controllers.NewHealthController(a.UserRepo, a.SessionTokenRepo)
	authController := controllers.NewAuthController(a.AuthService, a.SessionService)
	selfController := controllers.NewUserSelfController(a.UserSelfService)
	adminController := controllers.NewUserAdminController(a.UserAdminService)

	router := mux.NewRouter()

	// Health
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods("GET")

	// Public auth endpoints. Logout parses its own Authorization header so
	// that a malformed one is a 400 rather than a 401.
	router.HandleFunc(routes.AuthRegister, authController.Register).Methods("POST")
	router.HandleFunc(routes.AuthLogin, authController.Login).Methods("POST")
	router.HandleFunc(routes.AuthLogout, authController.Logout).Methods("POST")

	// Any authenticated user
	meRouter := router.PathPrefix(routes.Me).Subrouter()
	meRouter.Use(middleware.AuthMiddleware(a.SessionService, a.UserQueryService))
	meRouter.HandleFunc("", selfController.GetMe).Methods("GET")
	meRouter.HandleFunc("", selfController.DeleteMe).Methods("DELETE")
	meRouter.HandleFunc("/change-password", selfController.ChangePassword).Methods("POST")

	// Admin only
	adminRouter := router.PathPrefix(routes.AdminUsers).Subrouter()
	adminRouter.Use(middleware.AdminAuthMiddleware(a.SessionService, a.UserQueryService))
	adminRouter.HandleFunc("", adminController.ListUsers).Methods("GET")
	adminRouter.HandleFunc("/{id}", adminController.GetUser).Methods("GET")
	adminRouter.HandleFunc("/{id}", adminController.DeleteUser).Methods("DELETE")

	allowedOrigins := []string{a.Config.AppUrl}
	if !a.Config.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return co.Handler(router)
}
