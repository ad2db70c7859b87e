package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/config"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

const bearerPrefix = "Bearer "

// IssuedToken is what a successful login hands back to the client.
type IssuedToken struct {
	Token     string
	TokenID   string
	Subject   string
	ExpiresAt time.Time
	Lifetime  time.Duration
}

// SessionService ties the token codec to the revocation registry. A token is
// accepted only when its signature checks out, it has not expired, and its
// id is still registered for its subject.
type SessionService interface {
	IssueToken(ctx context.Context, subject string) (*IssuedToken, error)
	VerifyToken(ctx context.Context, tokenString string) (*TokenClaims, error)
	RevokeBySessionToken(ctx context.Context, authorizationHeader string) error
	RevokeOne(ctx context.Context, subject, tokenID string) error
	RevokeAllForSubject(ctx context.Context, subject string) error
	TokenLifetime() time.Duration
}

type sessionService struct {
	jwt             JWTService
	registry        repositories.SessionTokenRepository
	lifetime        time.Duration
	registryTimeout time.Duration
}

func NewSessionService(
	jwt JWTService,
	registry repositories.SessionTokenRepository,
	cfg *config.Config,
) SessionService {
	return &sessionService{
		jwt:             jwt,
		registry:        registry,
		lifetime:        cfg.TokenExpiry,
		registryTimeout: cfg.RegistryTimeout,
	}
}

func (s *sessionService) TokenLifetime() time.Duration {
	return s.lifetime
}

// IssueToken registers the new token id before returning the token, so a
// token is never handed out that the registry does not know about.
func (s *sessionService) IssueToken(ctx context.Context, subject string) (*IssuedToken, error) {
	tokenID := uuid.NewString()

	signed, claims, err := s.jwt.Issue(subject, tokenID, s.lifetime)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	rctx, cancel := context.WithTimeout(ctx, s.registryTimeout)
	defer cancel()
	if err := s.registry.Register(rctx, subject, tokenID, s.lifetime); err != nil {
		utils.Logger.WithFields(utils.SubjectFields(subject, tokenID)).WithError(err).
			Error("Failed to register session token")
		return nil, ensureRegistryError(err)
	}

	utils.Logger.WithFields(utils.SubjectFields(subject, tokenID)).Debug("Session token issued")
	return &IssuedToken{
		Token:     signed,
		TokenID:   tokenID,
		Subject:   subject,
		ExpiresAt: claims.Expiry(),
		Lifetime:  s.lifetime,
	}, nil
}

// VerifyToken reports every rejection as ErrUnauthorized. Registry failures
// are returned as ErrRegistryUnavailable; they never yield claims.
func (s *sessionService) VerifyToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims, err := s.jwt.Decode(tokenString)
	if err != nil {
		utils.Logger.WithError(err).Debug("Rejected undecodable session token")
		return nil, fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
	}
	fields := utils.SubjectFields(claims.Subject, claims.ID)

	if s.jwt.IsExpired(claims) {
		utils.Logger.WithFields(fields).Debug("Rejected expired session token")
		return nil, fmt.Errorf("%w: token expired", utils.ErrUnauthorized)
	}

	rctx, cancel := context.WithTimeout(ctx, s.registryTimeout)
	defer cancel()
	valid, err := s.registry.IsValid(rctx, claims.Subject, claims.ID)
	if err != nil {
		utils.Logger.WithFields(fields).WithError(err).Error("Revocation registry lookup failed")
		return nil, ensureRegistryError(err)
	}
	if !valid {
		utils.Logger.WithFields(fields).Debug("Rejected revoked session token")
		return nil, fmt.Errorf("%w: token revoked", utils.ErrUnauthorized)
	}
	return claims, nil
}

// RevokeBySessionToken is logout. A missing scheme or an undecodable token is
// ErrMalformedToken; a well-formed token with a bad signature is
// ErrUnauthorized. An expired but authentic token is still accepted so that
// logging out twice, or late, is harmless.
func (s *sessionService) RevokeBySessionToken(ctx context.Context, authorizationHeader string) error {
	tokenString, err := ExtractBearerToken(authorizationHeader)
	if err != nil {
		return err
	}

	claims, err := s.jwt.Decode(tokenString)
	if errors.Is(err, utils.ErrMalformedToken) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
	}
	return s.RevokeOne(ctx, claims.Subject, claims.ID)
}

func (s *sessionService) RevokeOne(ctx context.Context, subject, tokenID string) error {
	rctx, cancel := context.WithTimeout(ctx, s.registryTimeout)
	defer cancel()
	if err := s.registry.RevokeOne(rctx, subject, tokenID); err != nil {
		utils.Logger.WithFields(utils.SubjectFields(subject, tokenID)).WithError(err).
			Error("Failed to revoke session token")
		return ensureRegistryError(err)
	}
	utils.Logger.WithFields(utils.SubjectFields(subject, tokenID)).Info("Session token revoked")
	return nil
}

func (s *sessionService) RevokeAllForSubject(ctx context.Context, subject string) error {
	rctx, cancel := context.WithTimeout(ctx, s.registryTimeout)
	defer cancel()
	if err := s.registry.RevokeAll(rctx, subject); err != nil {
		utils.Logger.WithFields(utils.SubjectFields(subject, "")).WithError(err).
			Error("Failed to revoke all session tokens")
		return ensureRegistryError(err)
	}
	utils.Logger.WithFields(utils.SubjectFields(subject, "")).Info("All session tokens revoked")
	return nil
}

// ExtractBearerToken strips the "Bearer " scheme. A missing scheme or an
// empty remainder is ErrMalformedToken.
func ExtractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", fmt.Errorf("%w: missing Bearer scheme", utils.ErrMalformedToken)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", utils.ErrMalformedToken)
	}
	return token, nil
}

// ensureRegistryError keeps registry failures classifiable as 5xx even when
// the error came from the context (deadline) rather than the adapter.
func ensureRegistryError(err error) error {
	if errors.Is(err, utils.ErrRegistryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", utils.ErrRegistryUnavailable, err)
}
