package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed user store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the users table and the increment_user_points function.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			points     INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE OR REPLACE FUNCTION increment_user_points(user_id TEXT, points INTEGER)
		RETURNS INTEGER AS $$
			INSERT INTO users (id, points) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET points = users.points + EXCLUDED.points
			RETURNING users.points
		$$ LANGUAGE sql`)
	return err
}

// Ensure creates the user if it doesn't exist. Idempotent.
func (s *PgStore) Ensure(ctx context.Context, id string) (*User, error) {
	now := time.Now().Truncate(time.Microsecond)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, points, created_at) VALUES ($1, 0, $2)
		ON CONFLICT DO NOTHING`, id, now)
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Get returns a user by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `SELECT id, points, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Points, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

// Points returns the user's total, 0 if the user has no row yet.
func (s *PgStore) Points(ctx context.Context, id string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE((SELECT points FROM users WHERE id = $1), 0)`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("points for %s: %w", id, err)
	}
	return n, nil
}

// IncrementPoints calls the increment_user_points procedure.
func (s *PgStore) IncrementPoints(ctx context.Context, id string, n int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx, `SELECT increment_user_points($1, $2)`, id, n).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment points for %s: %w", id, err)
	}
	return total, nil
}

// List returns all users.
func (s *PgStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, points, created_at FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Points, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
