package testhelpers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mparreirinha/expensetrackerapp/internal/config"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// TestJWTSecret is a 32-byte HS256 key used by every test config.
var TestJWTSecret = []byte("0123456789abcdef0123456789abcdef")

// Epoch is the fake clock's starting point in tests. It sits on a whole
// second so issued-at truncation is a no-op.
var Epoch = time.Date(2030, time.January, 1, 12, 0, 0, 0, time.UTC)

// TestConfig returns a config suitable for in-process tests: one hour tokens,
// the cheapest bcrypt cost and a short registry timeout.
func TestConfig() *config.Config {
	return &config.Config{
		AppName:         "expense-tracker-test",
		AppPort:         "0",
		AppUrl:          "http://localhost:8080",
		DBUrl:           "sqlite://test.db",
		RedisUrl:        "redis://localhost:6379/0",
		JWTSecret:       TestJWTSecret,
		TokenExpiry:     time.Hour,
		RegistryTimeout: 500 * time.Millisecond,
		BcryptCost:      bcrypt.MinCost,
		AdminUsername:   "admin",
		AdminEmail:      "admin@email.com",
		AdminPassword:   "admin",
	}
}

// FastHasher is bcrypt at its minimum cost.
func FastHasher() utils.PasswordHasher {
	return utils.NewBcryptHasher(bcrypt.MinCost)
}

// NewMiniRedis starts an in-process Redis server and a client pointed at it.
// Both are closed when the test ends.
func NewMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// NewSQLiteUserRepo opens a fresh SQLite credential store in a temp dir.
func NewSQLiteUserRepo(t *testing.T) repositories.UserRepository {
	t.Helper()
	db, err := repositories.OpenSQLite(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repositories.NewSQLiteUserRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}
