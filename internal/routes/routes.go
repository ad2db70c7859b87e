package routes

const (
	// Health
	Health = "/health"

	// Authentication (public)
	AuthRegister = "/auth/register"
	AuthLogin    = "/auth/login"
	AuthLogout   = "/auth/logout"

	// Self-service (any authenticated user)
	Me               = "/me"
	MeChangePassword = "/me/change-password"

	// Administration (ADMIN role)
	AdminUsers = "/admin/users"
	AdminUser  = "/admin/users/{id}"
)
