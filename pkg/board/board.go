// Package board keeps a user's ordered task list in sync with a backend.
//
// Every mutation goes to the backend first and then re-fetches, so the
// local list never shows a task the backend has not accepted. Reorder is
// the exception: the new order is shown immediately and then persisted.
package board

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"focusforge/pkg/notify"
	"focusforge/pkg/task"
)

// Backend is the task persistence the board needs. task.Store and the API
// client both satisfy it.
type Backend interface {
	List(ctx context.Context, userID string) ([]task.Task, error)
	Create(ctx context.Context, t *task.Task) (*task.Task, error)
	Update(ctx context.Context, userID, id string, p task.Patch) (*task.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Reposition(ctx context.Context, userID string, ids []string) error
}

// Board is the task list for one user.
type Board struct {
	userID   string
	backend  Backend
	notifier notify.Notifier
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	tasks    []task.Task
	input    string
	onChange func()
}

// New creates an empty board. Call Refresh to load it.
func New(userID string, backend Backend, n notify.Notifier, log *slog.Logger) *Board {
	if n == nil {
		n = notify.Discard
	}
	if log == nil {
		log = slog.Default()
	}
	return &Board{
		userID:   userID,
		backend:  backend,
		notifier: n,
		log:      log.With("component", "board", "user_id", userID),
		now:      time.Now,
	}
}

// OnChange registers fn to run after the task list or input changes.
func (b *Board) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Tasks returns a copy of the displayed list.
func (b *Board) Tasks() []task.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]task.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// Input returns the pending title.
func (b *Board) Input() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.input
}

// SetInput replaces the pending title.
func (b *Board) SetInput(s string) {
	b.mu.Lock()
	b.input = s
	b.mu.Unlock()
}

// Refresh reloads the list from the backend. On failure the error is
// logged, the previous list stays on screen and nothing is shown to the user.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.backend.List(ctx, b.userID)
	if err != nil {
		b.log.Error("fetch tasks", "error", err)
		return err
	}
	b.mu.Lock()
	b.tasks = tasks
	b.mu.Unlock()
	b.changed()
	return nil
}

// Add creates a task at the end of the list. A blank title is ignored.
// On success the input is cleared.
func (b *Board) Add(ctx context.Context, title string, priority task.Priority) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	pos := task.NextPosition(b.Tasks())

	_, err := b.backend.Create(ctx, &task.Task{
		UserID:   b.userID,
		Title:    title,
		Priority: priority,
		Position: pos,
	})
	if err != nil {
		b.log.Error("add task", "error", err)
		b.notifier.Notify(notify.Error, "Failed to add task", err.Error())
		return false
	}

	b.mu.Lock()
	b.input = ""
	b.mu.Unlock()
	b.refetch(ctx)
	b.notifier.Notify(notify.Success, "Task added!", "")
	return true
}

// Submit adds the pending input as a task.
func (b *Board) Submit(ctx context.Context, priority task.Priority) bool {
	return b.Add(ctx, b.Input(), priority)
}

// ToggleComplete flips a task's completed flag.
func (b *Board) ToggleComplete(ctx context.Context, id string) bool {
	tasks := b.Tasks()
	i := task.IndexOf(tasks, id)
	if i < 0 {
		return false
	}
	completed := !tasks[i].Completed
	p := task.Patch{Completed: &completed}
	if completed {
		now := b.now()
		p.CompletedAt = &now
	}

	if _, err := b.backend.Update(ctx, b.userID, id, p); err != nil {
		b.log.Error("toggle task", "task_id", id, "error", err)
		b.notifier.Notify(notify.Error, "Failed to update task", err.Error())
		return false
	}
	b.refetch(ctx)
	return true
}

// Delete removes a task.
func (b *Board) Delete(ctx context.Context, id string) bool {
	if err := b.backend.Delete(ctx, b.userID, id); err != nil {
		b.log.Error("delete task", "task_id", id, "error", err)
		b.notifier.Notify(notify.Error, "Failed to delete task", err.Error())
		return false
	}
	b.refetch(ctx)
	b.notifier.Notify(notify.Success, "Task deleted", "")
	return true
}

// Reorder moves movedID to targetID's index. The new order is displayed at
// once and then written in one Reposition call; if that fails the list is
// re-fetched. It reports false when nothing moved.
func (b *Board) Reorder(ctx context.Context, movedID, targetID string) bool {
	b.mu.Lock()
	moved, ok := task.Move(b.tasks, movedID, targetID)
	if ok {
		b.tasks = moved
	}
	b.mu.Unlock()
	if !ok {
		return false
	}
	b.changed()

	if err := b.backend.Reposition(ctx, b.userID, task.IDs(moved)); err != nil {
		b.log.Error("reorder tasks", "error", err)
		b.notifier.Notify(notify.Error, "Failed to reorder tasks", err.Error())
		b.refetch(ctx)
	}
	return true
}

// MoveUp swaps a task with the one above it.
func (b *Board) MoveUp(ctx context.Context, id string) bool {
	return b.moveBy(ctx, id, -1)
}

// MoveDown swaps a task with the one below it.
func (b *Board) MoveDown(ctx context.Context, id string) bool {
	return b.moveBy(ctx, id, 1)
}

func (b *Board) moveBy(ctx context.Context, id string, delta int) bool {
	tasks := b.Tasks()
	i := task.IndexOf(tasks, id)
	j := i + delta
	if i < 0 || j < 0 || j >= len(tasks) {
		return false
	}
	return b.Reorder(ctx, id, tasks[j].ID)
}

// refetch reloads the list after a write. A failed reload does not change
// the write's outcome, so its error is only logged by Refresh.
func (b *Board) refetch(ctx context.Context) {
	_ = b.Refresh(ctx)
}

func (b *Board) changed() {
	b.mu.Lock()
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}
