// Package repository provides PostgreSQL persistence for users and documents.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/DocPortal/internal/models"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// PostgresUserRepository implements the identity store using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// UserExists checks whether a user with the specified username exists in the database.
func (r *PostgresUserRepository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
		username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return exists, nil
}

// CreateUser inserts a new user. A duplicate username yields models.ErrUsernameTaken
// and leaves the existing row untouched.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (username, name, email, password_hash) VALUES ($1, $2, $3, $4)`,
		u.Username, u.Name, u.Email, u.PasswordHash,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("CreateUser %q: %w", u.Username, models.ErrUsernameTaken)
	}
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUser fetches a user by username. A missing user yields models.ErrUserNotFound.
func (r *PostgresUserRepository) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(
		ctx,
		`SELECT username, name, email, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetUser %q: %w", username, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetUser: %w", err)
	}
	return &u, nil
}

// UpdatePassword replaces the stored password hash. A missing user yields
// models.ErrUserNotFound.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, username string, hash []byte) error {
	res, err := r.DB.ExecContext(
		ctx,
		`UPDATE users SET password_hash = $1 WHERE username = $2`,
		hash, username,
	)
	if err != nil {
		return fmt.Errorf("UpdatePassword: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdatePassword rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("UpdatePassword %q: %w", username, models.ErrUserNotFound)
	}
	return nil
}
