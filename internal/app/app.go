package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mparreirinha/expensetrackerapp/internal/config"
	"github.com/mparreirinha/expensetrackerapp/internal/repositories"
	"github.com/mparreirinha/expensetrackerapp/internal/services"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"github.com/redis/go-redis/v9"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App owns the process-wide dependencies. Handlers and the CLI reach the
// stores only through the services built here.
type App struct {
	Config *config.Config
	Redis  redis.UniversalClient

	UserRepo         repositories.UserRepository
	SessionTokenRepo repositories.SessionTokenRepository
	Hasher           utils.PasswordHasher

	JWTService       services.JWTService
	SessionService   services.SessionService
	AuthService      services.AuthService
	UserQueryService services.UserQueryService
	UserSelfService  services.UserSelfService
	UserAdminService services.UserAdminService

	closers []func()
}

// NewApp connects to the user store and the session registry, retrying
// each with exponential backoff, and wires the services on top.
func NewApp(cfg *config.Config) (*App, error) {
	userRepo, closeDB, err := openUserStore(cfg.DBUrl)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := userRepo.EnsureSchema(ctx); err != nil {
		closeDB()
		return nil, fmt.Errorf("ensure users schema: %w", err)
	}

	rdb, err := connectRedis(cfg.RedisUrl)
	if err != nil {
		closeDB()
		return nil, err
	}

	a := New(cfg, userRepo, rdb, utils.RealClock{})
	a.closers = append(a.closers, closeDB, func() {
		if err := rdb.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing redis client")
		}
		utils.Logger.Info("Redis connection closed.")
	})
	return a, nil
}

// New wires services over already-open stores.
func New(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	rdb redis.UniversalClient,
	clock utils.Clock,
) *App {
	hasher := utils.NewBcryptHasher(cfg.BcryptCost)
	sessionTokenRepo := repositories.NewSessionTokenRepository(rdb, clock)

	jwtService := services.NewJWTService(cfg.JWTSecret, clock)
	sessionService := services.NewSessionService(jwtService, sessionTokenRepo, cfg)
	userQueryService := services.NewUserQueryService(userRepo)

	return &App{
		Config:           cfg,
		Redis:            rdb,
		UserRepo:         userRepo,
		SessionTokenRepo: sessionTokenRepo,
		Hasher:           hasher,
		JWTService:       jwtService,
		SessionService:   sessionService,
		AuthService:      services.NewAuthService(userRepo, hasher),
		UserQueryService: userQueryService,
		UserSelfService:  services.NewUserSelfService(userQueryService, userRepo, hasher, sessionService),
		UserAdminService: services.NewUserAdminService(userQueryService, userRepo, sessionService),
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openUserStore picks the backend from the URL scheme:
// postgres:// and postgresql:// use pgx, sqlite:// and file: use SQLite.
func openUserStore(dbURL string) (repositories.UserRepository, func(), error) {
	switch {
	case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
		var pool *pgxpool.Pool
		err := withRetry("database", func(ctx context.Context) error {
			var err error
			pool, err = newDBPool(ctx, dbURL)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		return repositories.NewUserRepository(pool), func() {
			pool.Close()
			utils.Logger.Info("Database connection closed.")
		}, nil

	case strings.HasPrefix(dbURL, "sqlite://"), strings.HasPrefix(dbURL, "file:"):
		path := strings.TrimPrefix(dbURL, "sqlite://")
		db, err := repositories.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		utils.Logger.Infof("Using SQLite user store at %s", path)
		return repositories.NewSQLiteUserRepository(db), func() {
			if err := db.Close(); err != nil {
				utils.Logger.WithError(err).Warn("Error closing sqlite database")
			}
			utils.Logger.Info("Database connection closed.")
		}, nil
	}
	return nil, nil, fmt.Errorf("unsupported DB_URL scheme in %q", redactURL(dbURL))
}

// newDBPool constructs the pgx pool with production-safe settings.
//
//   - MaxConnIdleTime   retires idle sockets before proxies drop them
//   - HealthCheckPeriod keeps every pooled connection warm
func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func connectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	err = withRetry("redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func withRetry(what string, connect func(ctx context.Context) error) error {
	backoff := initialBackoff
	for i := 1; ; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		err := connect(ctx)
		cancel()
		if err == nil {
			utils.Logger.Infof("Successfully connected to %s on attempt %d", what, i)
			return nil
		}

		if i == maxRetries {
			return fmt.Errorf("unable to connect to %s after %d attempts: %w", what, maxRetries, err)
		}
		utils.Logger.WithError(err).Warnf(
			"Failed to connect to %s on attempt %d/%d. Retrying in %v...",
			what, i, maxRetries, backoff,
		)
		time.Sleep(backoff)
		backoff *= 2
	}
}

// redactURL drops credentials before a URL reaches the logs.
func redactURL(raw string) string {
	if at := strings.LastIndex(raw, "@"); at >= 0 {
		if scheme := strings.Index(raw, "://"); scheme >= 0 && scheme < at {
			return raw[:scheme+3] + "***" + raw[at:]
		}
	}
	return raw
}
