package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
)

// UserRepository is the credential store. Lookups return (nil, nil) when no
// row matches.
type UserRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}

// DB is satisfied by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pinger interface {
	Ping(ctx context.Context) error
}

const (
	pgUniqueViolation       = "23505"
	usersUsernameConstraint = "users_username_key"
	usersEmailConstraint    = "users_email_key"
)

type userRepo struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            UUID PRIMARY KEY,
			username      VARCHAR(50)  NOT NULL,
			email         VARCHAR(254) NOT NULL,
			password_hash TEXT         NOT NULL,
			role          VARCHAR(16)  NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL,
			updated_at    TIMESTAMPTZ  NOT NULL,
			CONSTRAINT users_username_key UNIQUE (username),
			CONSTRAINT users_email_key    UNIQUE (email)
		)`)
	return err
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	prepareForInsert(user)

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, role, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return mapPgUniqueViolation(err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE id=$1", id)
	return r.scanUser(row)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE username=$1", username)
	return r.scanUser(row)
}

func (r *userRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1)`, username).Scan(&exists)
	return exists, err
}

func (r *userRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *userRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, baseSelectUser()+" ORDER BY created_at, username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET password_hash=$1, updated_at=$2 WHERE id=$3
	`, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepo) Ping(ctx context.Context) error {
	if p, ok := r.db.(pinger); ok {
		return p.Ping(ctx)
	}
	var one int
	return r.db.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func baseSelectUser() string {
	return `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM users`
}

func (r *userRepo) scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = models.RoleType(role)
	return &u, nil
}

func mapPgUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case usersUsernameConstraint:
		return fmt.Errorf("%w: %s", utils.ErrUsernameTaken, pgErr.Message)
	case usersEmailConstraint:
		return fmt.Errorf("%w: %s", utils.ErrEmailTaken, pgErr.Message)
	}
	return err
}

func prepareForInsert(user *models.User) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
}
