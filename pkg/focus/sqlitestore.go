package focus

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore is a session store over an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS focus_sessions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			points_earned    INTEGER NOT NULL,
			created_at       DATETIME NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_focus_sessions_user_created ON focus_sessions(user_id, created_at DESC)`)
	return err
}

func (s *SQLiteStore) Create(ctx context.Context, sess *Session) (*Session, error) {
	if err := validate(sess); err != nil {
		return nil, err
	}
	sess.ID = uuid.Must(uuid.NewV7()).String()
	sess.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO focus_sessions (id, user_id, duration_minutes, points_earned, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.UserID, sess.DurationMinutes, sess.PointsEarned, sess.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]Session, error) {
	// ids are v7 so they break created_at ties in insert order
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, duration_minutes, points_earned, created_at
		FROM focus_sessions WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return scanSessionRows(rows)
}

func (s *SQLiteStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM focus_sessions WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
