// Package dashboard composes the timer, task board and stats panel for one
// user. The components share nothing but the user id and the Points value
// held here.
package dashboard

import (
	"context"
	"log/slog"
	"time"

	"focusforge/pkg/board"
	"focusforge/pkg/notify"
	"focusforge/pkg/stats"
	"focusforge/pkg/timer"
)

// SessionBackend records and counts sessions.
type SessionBackend interface {
	timer.SessionRecorder
	stats.SessionCounter
}

// PointsBackend reads and increments the points total.
type PointsBackend interface {
	timer.PointsIncrementer
	Points(ctx context.Context, userID string) (int, error)
}

// Backends are the stores or API services the components run against.
type Backends struct {
	Tasks    board.Backend
	Sessions SessionBackend
	Users    PointsBackend
	Quotes   stats.QuoteSource
}

// Options tune a Dashboard. The zero value is usable.
type Options struct {
	Log             *slog.Logger
	Notifier        notify.Notifier
	CompleteTimeout time.Duration
	// OnChange runs after any component changes, e.g. to request a redraw.
	OnChange func()

	// for tests
	NewTicker func(time.Duration) timer.Ticker
}

// Dashboard is the parent of the three components.
type Dashboard struct {
	UserID string
	Points *Points
	Timer  *timer.Engine
	Board  *board.Board
	Stats  *stats.Panel

	users    PointsBackend
	log      *slog.Logger
	onChange func()
	ctx      context.Context
	cancel   context.CancelFunc
}

// New wires the components. Call Load to fetch initial state and Close
// to tear everything down.
func New(userID string, be Backends, opts Options) *Dashboard {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		UserID:   userID,
		Points:   &Points{},
		users:    be.Users,
		log:      opts.Log.With("component", "dashboard", "user_id", userID),
		onChange: opts.OnChange,
		ctx:      ctx,
		cancel:   cancel,
	}

	d.Board = board.New(userID, be.Tasks, opts.Notifier, opts.Log)
	d.Board.OnChange(d.changed)

	d.Stats = stats.NewPanel(userID, be.Sessions, be.Quotes, opts.Log)
	d.Stats.OnChange(d.changed)

	d.Timer = timer.New(timer.Config{
		UserID:          userID,
		Sessions:        be.Sessions,
		Points:          be.Users,
		Notifier:        opts.Notifier,
		Log:             opts.Log,
		CompleteTimeout: opts.CompleteTimeout,
		OnComplete:      func() { d.ReloadPoints(d.ctx) },
		OnChange:        func(timer.State) { d.changed() },
		NewTicker:       opts.NewTicker,
	})

	// stats follow the displayed points
	d.Points.Subscribe(func(n int) {
		d.Stats.Refresh(d.ctx, n)
		d.changed()
	})
	return d
}

// Context is cancelled by Close.
func (d *Dashboard) Context() context.Context { return d.ctx }

// Load fetches tasks, points and stats.
func (d *Dashboard) Load(ctx context.Context) {
	d.Board.Refresh(ctx)
	d.ReloadPoints(ctx)
	d.Stats.Refresh(ctx, d.Points.Get())
}

// ReloadPoints re-reads the total from the backend. Failures are logged
// and the displayed value is kept.
func (d *Dashboard) ReloadPoints(ctx context.Context) {
	n, err := d.users.Points(ctx, d.UserID)
	if err != nil {
		d.log.Error("reload points", "error", err)
		return
	}
	d.Points.Set(n)
}

// Close stops the timer and cancels in-flight work.
func (d *Dashboard) Close() {
	d.Timer.Close()
	d.cancel()
}

func (d *Dashboard) changed() {
	if d.onChange != nil {
		d.onChange()
	}
}
