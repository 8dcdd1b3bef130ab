package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrEmptyTitle      = errors.New("title is required")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
	ErrInvalidPosition = errors.New("position must not be negative")
)

// Priority ranks how urgent a task is.
type Priority string

const (
	Low    Priority = "low"
	Medium Priority = "medium"
	High   Priority = "high"
)

// ParsePriority accepts low, medium or high in any case. Empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return Medium, nil
	case Low:
		return Low, nil
	case Medium:
		return Medium, nil
	case High:
		return High, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// Task is one entry on a user's board.
type Task struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Priority    Priority   `json:"priority"`
	Completed   bool       `json:"completed"`
	Position    int        `json:"position"` // display order within the owner's list
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left alone.
//
// Setting Completed also rewrites completed_at: CompletedAt (or now) when
// true, NULL when false.
type Patch struct {
	Title       *string    `json:"title,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Position    *int       `json:"position,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Priority == nil && p.Completed == nil && p.Position == nil
}

// Validate normalises and checks the patch in place.
func (p *Patch) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return ErrEmptyTitle
		}
		p.Title = &title
	}
	if p.Priority != nil {
		pr, err := ParsePriority(string(*p.Priority))
		if err != nil {
			return err
		}
		p.Priority = &pr
	}
	if p.Position != nil && *p.Position < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPosition, *p.Position)
	}
	return nil
}

// completedAt resolves the completed_at value a patch with Completed set writes.
func (p Patch) completedAt(now time.Time) *time.Time {
	if p.Completed == nil || !*p.Completed {
		return nil
	}
	if p.CompletedAt != nil {
		at := p.CompletedAt.Truncate(time.Microsecond)
		return &at
	}
	return &now
}

// Apply returns a copy of t with the patch applied.
func (p Patch) Apply(t Task, now time.Time) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
		t.CompletedAt = p.completedAt(now)
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
	t.UpdatedAt = now
	return t
}

// prepare validates a new task before insert.
func prepare(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return ErrEmptyTitle
	}
	if t.UserID == "" {
		return errors.New("task owner is required")
	}
	pr, err := ParsePriority(string(t.Priority))
	if err != nil {
		return err
	}
	t.Priority = pr
	if t.Position < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidPosition, t.Position)
	}
	return nil
}

// Store is the contract for task persistence. Every call is scoped to the
// owning user; rows owned by someone else behave as missing.
type Store interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	Get(ctx context.Context, userID, id string) (*Task, error)
	List(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, userID, id string, p Patch) (*Task, error)
	Delete(ctx context.Context, userID, id string) error
	// Reposition writes position i for ids[i] in a single transaction.
	Reposition(ctx context.Context, userID string, ids []string) error
	// MaxPosition returns -1 when the user has no tasks.
	MaxPosition(ctx context.Context, userID string) (int, error)
	Count(ctx context.Context, userID string) (int, error)
	CompletedCount(ctx context.Context, userID string) (int, error)
	EnsureTable(ctx context.Context) error
}
