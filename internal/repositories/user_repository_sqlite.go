package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mparreirinha/expensetrackerapp/internal/models"
	"github.com/mparreirinha/expensetrackerapp/internal/utils"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed-width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteUserRepo backs local development and tests. Ids are stored as
// canonical uuid strings.
type sqliteUserRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One writer at a time; avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

func NewSQLiteUserRepository(db *sql.DB) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		);`)
	if err != nil {
		return fmt.Errorf("failed to init 'users' table schema: %w", err)
	}
	return nil
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	prepareForInsert(user)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, email, password_hash, role, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID.String(), user.Username, user.Email, user.PasswordHash, string(user.Role),
		formatSQLiteTime(user.CreatedAt), formatSQLiteTime(user.UpdatedAt))
	if err != nil {
		return mapSQLiteUniqueViolation(err)
	}
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, baseSelectUser()+" WHERE id=?", id.String())
	return scanSQLiteUser(row)
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, baseSelectUser()+" WHERE username=?", username)
	return scanSQLiteUser(row)
}

func (r *sqliteUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username=?)`, username).Scan(&exists)
	return exists, err
}

func (r *sqliteUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=?)`, email).Scan(&exists)
	return exists, err
}

func (r *sqliteUserRepo) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, baseSelectUser()+" ORDER BY created_at, username")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash=?, updated_at=? WHERE id=?
	`, passwordHash, formatSQLiteTime(time.Now().UTC()), id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrUserNotFound
	}
	return nil
}

func (r *sqliteUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id.String())
	return err
}

func (r *sqliteUserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row sqlScanner) (*models.User, error) {
	var (
		u                    models.User
		id, role             string
		createdAt, updatedAt string
	)
	err := row.Scan(&id, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", id, err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt created_at for %s: %w", id, err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("corrupt updated_at for %s: %w", id, err)
	}
	u.Role = models.RoleType(role)
	return &u, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func mapSQLiteUniqueViolation(err error) error {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return err
	}
	msg := sqliteErr.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return fmt.Errorf("%w: %s", utils.ErrUsernameTaken, msg)
	case strings.Contains(msg, "users.email"):
		return fmt.Errorf("%w: %s", utils.ErrEmailTaken, msg)
	}
	return err
}
