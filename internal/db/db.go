// Package db opens the configured database and builds the stores over it.
//
// DATABASE_URL selects the backend: postgres:// or postgresql:// URLs use
// pgxpool, and sqlite:<path> uses an embedded SQLite file.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"focusforge/pkg/focus"
	"focusforge/pkg/task"
	"focusforge/pkg/user"
)

// Connect opens a PostgreSQL pool and pings it.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// OpenSQLite opens or creates the SQLite database at path in WAL mode.
func OpenSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // one writer at a time
	return db, nil
}

// Stores bundles the persistence the server and ffctl use.
type Stores struct {
	Tasks    task.Store
	Sessions focus.Store
	Users    user.Store
	Backend  string // "postgres" or "sqlite"

	ping  func(context.Context) error
	close func()
}

// Open connects to url, builds every store and ensures their tables exist.
func Open(ctx context.Context, url string) (*Stores, error) {
	var s *Stores
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		pool, err := Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		s = &Stores{
			Tasks:    task.NewPgStore(pool),
			Sessions: focus.NewPgStore(pool),
			Users:    user.NewPgStore(pool),
			Backend:  "postgres",
			ping:     pool.Ping,
			close:    pool.Close,
		}
	case strings.HasPrefix(url, "sqlite:"):
		db, err := OpenSQLite(strings.TrimPrefix(url, "sqlite:"))
		if err != nil {
			return nil, err
		}
		s = &Stores{
			Tasks:    task.NewSQLiteStore(db),
			Sessions: focus.NewSQLiteStore(db),
			Users:    user.NewSQLiteStore(db),
			Backend:  "sqlite",
			ping:     db.PingContext,
			close:    func() { db.Close() },
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_URL %q: want postgres:// or sqlite:<path>", url)
	}

	if err := s.EnsureTables(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// EnsureTables creates every table (and the points function on Postgres).
func (s *Stores) EnsureTables(ctx context.Context) error {
	if err := s.Tasks.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure tasks table: %w", err)
	}
	if err := s.Sessions.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure focus_sessions table: %w", err)
	}
	if err := s.Users.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Stores) Ping(ctx context.Context) error { return s.ping(ctx) }

// Close releases the connection pool.
func (s *Stores) Close() { s.close() }
