// Package timer implements the single-session pomodoro countdown.
//
// An Engine moves through Idle -> Running <-> Paused, and from Running at
// 00:00 into Completing, which records the session and the points reward
// before returning to Idle. The one-second tick is a goroutine owned by
// the engine; it exists only while the phase is Running.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"focusforge/pkg/focus"
	"focusforge/pkg/notify"
)

// Length is the duration of one session.
const Length = focus.SessionMinutes * time.Minute

const totalSeconds = focus.SessionMinutes * 60

// Phase is where the engine is in its cycle.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Completing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Completing:
		return "completing"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is a snapshot of the engine.
type State struct {
	Phase     Phase
	Minutes   int
	Seconds   int
	StartedAt *time.Time // set by Start, cleared by Reset
}

func initialState() State {
	return State{Phase: Idle, Minutes: focus.SessionMinutes}
}

// Running reports whether the countdown is advancing.
func (s State) Running() bool { return s.Phase == Running }

// Remaining is the time left on the clock.
func (s State) Remaining() time.Duration {
	return time.Duration(s.Minutes*60+s.Seconds) * time.Second
}

// Display renders the remaining time as MM:SS.
func (s State) Display() string {
	return fmt.Sprintf("%02d:%02d", s.Minutes, s.Seconds)
}

// Progress is elapsed time over the session length, in [0, 1].
func (s State) Progress() float64 {
	elapsed := totalSeconds - (s.Minutes*60 + s.Seconds)
	return float64(elapsed) / totalSeconds
}

// SessionRecorder persists completed sessions. focus.Store satisfies it.
type SessionRecorder interface {
	Create(ctx context.Context, s *focus.Session) (*focus.Session, error)
}

// PointsIncrementer applies the session reward. user.Store satisfies it.
type PointsIncrementer interface {
	IncrementPoints(ctx context.Context, userID string, n int) (int, error)
}

// Ticker is the subset of time.Ticker the engine needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (t stdTicker) C() <-chan time.Time { return t.t.C }
func (t stdTicker) Stop()               { t.t.Stop() }

// Config wires an Engine. UserID, Sessions and Points are required.
type Config struct {
	UserID   string
	Sessions SessionRecorder
	Points   PointsIncrementer
	Notifier notify.Notifier
	Log      *slog.Logger

	// OnComplete runs after a session has been recorded and rewarded,
	// before the engine resets.
	OnComplete func()
	// OnChange receives every new state. It runs on the goroutine that
	// caused the change and must not call Close.
	OnChange func(State)

	// CompleteTimeout bounds the persistence calls made on completion.
	CompleteTimeout time.Duration

	Now       func() time.Time
	NewTicker func(time.Duration) Ticker
}

// Engine is the countdown state machine. All methods are safe for
// concurrent use.
type Engine struct {
	cfg    Config
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	stop   chan struct{} // closed to end the current tick goroutine
	epoch  uint64        // bumped by Start and Reset
	closed bool

	ticking sync.WaitGroup
}

// New creates an Idle engine at 25:00.
func New(cfg Config) *Engine {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.CompleteTimeout <= 0 {
		cfg.CompleteTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func(d time.Duration) Ticker { return stdTicker{time.NewTicker(d)} }
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:    cfg,
		log:    cfg.Log.With("component", "timer", "user_id", cfg.UserID),
		ctx:    ctx,
		cancel: cancel,
		state:  initialState(),
	}
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start begins or resumes the countdown. It reports false unless the
// engine was Idle or Paused.
func (e *Engine) Start() bool {
	e.mu.Lock()
	if e.closed || (e.state.Phase != Idle && e.state.Phase != Paused) {
		e.mu.Unlock()
		return false
	}
	now := e.cfg.Now()
	e.state.StartedAt = &now
	e.state.Phase = Running
	e.epoch++

	stop := make(chan struct{})
	e.stop = stop
	t := e.cfg.NewTicker(time.Second)
	e.ticking.Add(1)
	snap := e.state
	e.mu.Unlock()

	go e.run(t, stop)
	e.changed(snap)
	return true
}

// Pause freezes the countdown. It reports false unless the engine was Running.
func (e *Engine) Pause() bool {
	e.mu.Lock()
	if e.state.Phase != Running {
		e.mu.Unlock()
		return false
	}
	e.state.Phase = Paused
	e.stopTickLocked()
	snap := e.state
	e.mu.Unlock()

	e.changed(snap)
	return true
}

// Toggle starts when stopped and pauses when running.
func (e *Engine) Toggle() bool {
	if e.State().Running() {
		return e.Pause()
	}
	return e.Start()
}

// Reset returns to Idle at 25:00 from any phase.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopTickLocked()
	closed := e.closed
	e.state = initialState()
	e.epoch++
	snap := e.state
	e.mu.Unlock()

	if !closed {
		e.changed(snap)
	}
}

// Tick advances the countdown by one second. Ticking at 00:00 completes
// the session. It reports false when the engine is not Running.
func (e *Engine) Tick() bool {
	return e.tick(nil)
}

// Close stops the tick and waits for every tick goroutine to exit.
// In-flight completion calls are cancelled. No tick fires after Close
// returns.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.stopTickLocked()
	e.mu.Unlock()

	e.cancel()
	e.ticking.Wait()
}

func (e *Engine) run(t Ticker, stop chan struct{}) {
	defer e.ticking.Done()
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			e.tick(stop)
		}
	}
}

// tick advances the clock. A non-nil gen is the stop channel of the
// goroutine calling it; ticks from a superseded goroutine are ignored.
func (e *Engine) tick(gen chan struct{}) bool {
	e.mu.Lock()
	if e.closed || e.state.Phase != Running || (gen != nil && gen != e.stop) {
		e.mu.Unlock()
		return false
	}

	switch {
	case e.state.Seconds > 0:
		e.state.Seconds--
	case e.state.Minutes > 0:
		e.state.Minutes--
		e.state.Seconds = 59
	default:
		e.state.Phase = Completing
		e.stopTickLocked()
		epoch := e.epoch
		snap := e.state
		e.mu.Unlock()

		e.changed(snap)
		e.complete(epoch)
		return true
	}
	snap := e.state
	e.mu.Unlock()

	e.changed(snap)
	return true
}

// complete records the session and the reward. On failure the engine stays
// at 00:00, Paused, so a later Start retries. If Reset or Start ran while
// the calls were in flight, the state they left is not touched.
func (e *Engine) complete(epoch uint64) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.CompleteTimeout)
	defer cancel()

	if err := e.persist(ctx); err != nil {
		e.log.Error("complete session", "error", err)
		e.cfg.Notifier.Notify(notify.Error, "Failed to save session", err.Error())

		e.mu.Lock()
		if e.epoch != epoch || e.state.Phase != Completing {
			e.mu.Unlock()
			return
		}
		e.state.Phase = Paused
		snap := e.state
		e.mu.Unlock()
		e.changed(snap)
		return
	}

	e.log.Info("session complete", "points", focus.SessionPoints)
	e.cfg.Notifier.Notify(notify.Success,
		fmt.Sprintf("Focus session complete! +%d points", focus.SessionPoints), "Time for a break!")
	// The reward was granted either way, so OnComplete still runs.
	if e.cfg.OnComplete != nil {
		e.cfg.OnComplete()
	}

	e.mu.Lock()
	if e.epoch != epoch || e.state.Phase != Completing {
		e.mu.Unlock()
		return
	}
	e.state = initialState()
	e.epoch++
	closed := e.closed
	snap := e.state
	e.mu.Unlock()

	if !closed {
		e.changed(snap)
	}
}

func (e *Engine) persist(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if _, err := e.cfg.Sessions.Create(ctx, focus.NewSession(e.cfg.UserID)); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	if _, err := e.cfg.Points.IncrementPoints(ctx, e.cfg.UserID, focus.SessionPoints); err != nil {
		return fmt.Errorf("increment points: %w", err)
	}
	return nil
}

// stopTickLocked signals the current tick goroutine to exit. Callers hold e.mu.
func (e *Engine) stopTickLocked() {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (e *Engine) changed(s State) {
	if e.cfg.OnChange != nil {
		e.cfg.OnChange(s)
	}
}
