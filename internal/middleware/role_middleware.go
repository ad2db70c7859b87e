package middleware

import (
	"net/http"

	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// RequireRole must run after AuthMiddleware. Callers with another role get 403.
func RequireRole(role models.RoleType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing principal", nil,
				)
				return
			}
			if p.Role != role {
				utils.RespondErrorWithCode(
					w, http.StatusForbidden, utils.ErrCodeForbidden, "Insufficient permissions", nil,
				)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuthMiddleware is AuthMiddleware followed by an ADMIN role check.
func AdminAuthMiddleware(verifier TokenVerifier, loader PrincipalLoader) func(http.Handler) http.Handler {
	authenticate := AuthMiddleware(verifier, loader)
	requireAdmin := RequireRole(models.RoleAdmin)
	return func(next http.Handler) http.Handler {
		return authenticate(requireAdmin(next))
	}
}
