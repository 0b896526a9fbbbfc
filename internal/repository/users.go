package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebovvv/bugtrack/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) InsertUser(ctx context.Context, u domain.User) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, email, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, u.ID, u.Name, u.Email, string(u.Role), u.IsActive); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, name, email, role, is_active, created_at, updated_at
		FROM users
		WHERE user_id = $1 AND deleted_at IS NULL
	`, userID).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// UserExists checks a user reference without loading the record; works both
// inside and outside a transaction.
func (r *Repository) UserExists(ctx context.Context, tx pgx.Tx, userID string) (bool, error) {
	var exists bool
	err := r.db(tx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users WHERE user_id = $1 AND deleted_at IS NULL
		)
	`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return exists, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, name, email, role, is_active, created_at, updated_at
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
