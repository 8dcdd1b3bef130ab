package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore is a user store over an embedded SQLite database. SQLite has
// no stored procedures, so IncrementPoints is a single upsert statement.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			points     INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`)
	return err
}

func (s *SQLiteStore) Ensure(ctx context.Context, id string) (*User, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, points, created_at) VALUES (?, 0, ?)
		ON CONFLICT(id) DO NOTHING`, id, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", id, err)
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, points, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Points, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &u, nil
}

func (s *SQLiteStore) Points(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE((SELECT points FROM users WHERE id = ?), 0)`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("points for %s: %w", id, err)
	}
	return n, nil
}

func (s *SQLiteStore) IncrementPoints(ctx context.Context, id string, n int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, points, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET points = points + excluded.points
		RETURNING points`, id, n, time.Now().UTC()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment points for %s: %w", id, err)
	}
	return total, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, points, created_at FROM users ORDER BY created_at ASC`)
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
