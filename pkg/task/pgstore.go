package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, priority, completed, position, completed_at, created_at, updated_at`

// PgStore is a PostgreSQL-backed task store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			title        TEXT NOT NULL,
			priority     TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
			completed    BOOLEAN NOT NULL DEFAULT FALSE,
			position     INTEGER NOT NULL DEFAULT 0,
			completed_at TIMESTAMPTZ,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	// Positions are unique per owner only at rest, so this index is not UNIQUE.
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_user_position ON tasks(user_id, position)`)
	return err
}

// Create inserts a new task.
func (s *PgStore) Create(ctx context.Context, t *Task) (*Task, error) {
	if err := prepare(t); err != nil {
		return nil, err
	}
	t.ID = uuid.Must(uuid.NewV7()).String()
	now := time.Now().Truncate(time.Microsecond)
	t.CreatedAt = now
	t.UpdatedAt = now
	if !t.Completed {
		t.CompletedAt = nil
	} else if t.CompletedAt == nil {
		t.CompletedAt = &now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, user_id, title, priority, completed, position, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.UserID, t.Title, string(t.Priority), t.Completed, t.Position, t.CompletedAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// Get retrieves a single task owned by userID.
func (s *PgStore) Get(ctx context.Context, userID, id string) (*Task, error) {
	var t Task
	err := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Title, &t.Priority, &t.Completed, &t.Position, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return &t, nil
}

// List returns the user's tasks ordered by position ascending.
func (s *PgStore) List(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE user_id = $1 ORDER BY position ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return scanTaskRows(rows)
}

// Update applies a patch. Supported fields: title, priority, completed
// (with completed_at), position.
func (s *PgStore) Update(ctx context.Context, userID, id string, p Patch) (*Task, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().Truncate(time.Microsecond)

	// Build SET clause dynamically
	setClauses := "updated_at = $1"
	args := []any{now}
	argIdx := 2

	if p.Title != nil {
		setClauses += fmt.Sprintf(", title = $%d", argIdx)
		args = append(args, *p.Title)
		argIdx++
	}
	if p.Priority != nil {
		setClauses += fmt.Sprintf(", priority = $%d", argIdx)
		args = append(args, string(*p.Priority))
		argIdx++
	}
	if p.Completed != nil {
		setClauses += fmt.Sprintf(", completed = $%d, completed_at = $%d", argIdx, argIdx+1)
		args = append(args, *p.Completed, p.completedAt(now))
		argIdx += 2
	}
	if p.Position != nil {
		setClauses += fmt.Sprintf(", position = $%d", argIdx)
		args = append(args, *p.Position)
		argIdx++
	}

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		setClauses, argIdx, argIdx+1, taskColumns)

	var t Task
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&t.ID, &t.UserID, &t.Title, &t.Priority, &t.Completed, &t.Position, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, notFound(err))
	}
	return &t, nil
}

// Delete removes a task.
func (s *PgStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	return nil
}

// Reposition sets position i on ids[i] inside one transaction. Any unknown
// id rolls the whole batch back.
func (s *PgStore) Reposition(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().Truncate(time.Microsecond)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i, id := range ids {
		batch.Queue(`UPDATE tasks SET position = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`, i, now, id, userID)
	}
	br := tx.SendBatch(ctx, batch)
	for _, id := range ids {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("reposition task %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			br.Close()
			return fmt.Errorf("reposition task %s: %w", id, ErrNotFound)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("reposition batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reposition: %w", err)
	}
	return nil
}

// MaxPosition returns the highest position among the user's tasks, or -1.
func (s *PgStore) MaxPosition(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(position), -1) FROM tasks WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("max position: %w", err)
	}
	return n, nil
}

// Count returns the user's task count.
func (s *PgStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// CompletedCount returns the user's completed task count.
func (s *PgStore) CompletedCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND completed`, userID).Scan(&n)
	return n, err
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func scanTaskRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Task, error) {
	tasks := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Priority, &t.Completed, &t.Position, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}
