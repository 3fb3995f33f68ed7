package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bookstore/internal/auth/models"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ============================================================
// SQLite Repository
// ============================================================

// Repository is the SQLite-backed identity store.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the embedded migrations in lexical order.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return queryUser(ctx, r.db, `
        SELECT id, username, email, password_hash, role, created_at
        FROM users
        WHERE username = ?
    `, username)
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return queryUser(ctx, r.db, `
        SELECT id, username, email, password_hash, role, created_at
        FROM users
        WHERE id = ?
    `, id)
}

func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, username, email, password_hash, role, created_at
        FROM users
        ORDER BY created_at ASC, username ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users rows: %w", err)
	}
	return users, nil
}

// Save inserts u when it has no ID or no stored row yet, and updates the
// stored row otherwise. The username uniqueness check and the write share a
// transaction, so a duplicate is reported before anything is written.
func (r *Repository) Save(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil {
		return nil, models.Errorf(models.ErrValidation, "user is required")
	}
	if !models.ValidRole(u.Role) {
		return nil, models.Errorf(models.ErrValidation, "invalid role %q", u.Role)
	}

	saved := u.Clone()
	saved.Username = strings.TrimSpace(saved.Username)
	if saved.Username == "" {
		return nil, models.Errorf(models.ErrValidation, "username is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	existing, err := queryUser(ctx, tx, `SELECT id, username, email, password_hash, role, created_at FROM users WHERE username = ?`, saved.Username)
	switch {
	case err == nil && existing.ID != saved.ID:
		return nil, models.ErrDuplicateUsername
	case err != nil && !errors.Is(err, models.ErrUserNotFound):
		return nil, err
	}

	var current *models.User
	if saved.ID != "" {
		current, err = queryUser(ctx, tx, `SELECT id, username, email, password_hash, role, created_at FROM users WHERE id = ?`, saved.ID)
		if err != nil && !errors.Is(err, models.ErrUserNotFound) {
			return nil, err
		}
	}

	if current == nil {
		if saved.ID == "" {
			saved.ID = uuid.NewString()
		}
		if saved.CreatedAt.IsZero() {
			saved.CreatedAt = time.Now().UTC()
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO users (id, username, email, password_hash, role, created_at)
            VALUES (?, ?, ?, ?, ?, ?)
        `, saved.ID, saved.Username, saved.Email, saved.PasswordHash, string(saved.Role), saved.CreatedAt.UTC().Format(time.RFC3339Nano))
	} else {
		saved.CreatedAt = current.CreatedAt
		_, err = tx.ExecContext(ctx, `
            UPDATE users SET username = ?, email = ?, password_hash = ?, role = ?
            WHERE id = ?
        `, saved.Username, saved.Email, saved.PasswordHash, string(saved.Role), saved.ID)
	}
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: users.username") {
			return nil, models.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save: %w", err)
	}
	return saved, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// ============================================================
// Migrations & Scanning
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func queryUser(ctx context.Context, q queryer, query string, args ...any) (*models.User, error) {
	return scanUser(q.QueryRowContext(ctx, query, args...))
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		createdAt string
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = models.Role(role)

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	u.CreatedAt = t
	return &u, nil
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
