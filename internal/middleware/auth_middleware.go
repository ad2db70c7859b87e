package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

type contextKey string

const ContextKeyPrincipal = contextKey("principal")

// Principal is the verified caller attached to the request context.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     models.RoleType
	TokenID  string
}

type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*services.TokenClaims, error)
}

type PrincipalLoader interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthMiddleware verifies the bearer token against the session registry and
// loads the caller's account.
//   - no Authorization header        => 401
//   - header without "Bearer " scheme => 400
//   - rejected token or unknown user  => 401
//   - registry or store failure       => 500
func AuthMiddleware(verifier TokenVerifier, loader PrincipalLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing Authorization header", nil,
				)
				return
			}

			tokenStr, err := services.ExtractBearerToken(header)
			if err != nil {
				utils.HandleAppError(w, err)
				return
			}

			claims, err := verifier.VerifyToken(r.Context(), tokenStr)
			if err != nil {
				utils.HandleAppError(w, err)
				return
			}

			user, err := loader.GetByUsername(r.Context(), claims.Subject)
			if errors.Is(err, utils.ErrUserNotFound) {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unknown subject", err,
				)
				return
			}
			if err != nil {
				utils.HandleAppError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, Principal{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
				TokenID:  claims.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(Principal)
	return p, ok
}
