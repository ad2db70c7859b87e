package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// TokenClaims is the payload of a session token: sub, jti, iat and exp.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// Expiry returns exp, or the zero time when the claim is absent.
func (c *TokenClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

// JWTService signs and decodes HS256 session tokens. It does not consult the
// revocation registry.
type JWTService interface {
	Issue(subject, tokenID string, lifetime time.Duration) (string, *TokenClaims, error)

	// Decode checks structure and signature only. Expiry is left to IsExpired.
	Decode(tokenString string) (*TokenClaims, error)

	IsExpired(claims *TokenClaims) bool
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	key   []byte
	clock utils.Clock
}

func NewJWTService(key []byte, clock utils.Clock) JWTService {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &jwtService{key: key, clock: clock}
}

// Issue signs a token for subject. iat is truncated to the second so that the
// exp stored in the token equals iat+lifetime exactly.
func (j *jwtService) Issue(subject, tokenID string, lifetime time.Duration) (string, *TokenClaims, error) {
	if subject == "" || tokenID == "" {
		return "", nil, errors.New("subject and token id are required")
	}
	if lifetime <= 0 {
		return "", nil, errors.New("token lifetime must be positive")
	}

	issuedAt := j.clock.Now().Truncate(time.Second)
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.key)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (j *jwtService) Decode(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return j.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", utils.ErrMalformedToken, err)
		}
		// Bad signatures, alg=none and foreign algorithms all land here.
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidSignature, err)
	}

	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing sub, jti or exp claim", utils.ErrMalformedToken)
	}
	return claims, nil
}

// IsExpired reports whether now >= exp.
func (j *jwtService) IsExpired(claims *TokenClaims) bool {
	return !j.clock.Now().Before(claims.Expiry())
}
