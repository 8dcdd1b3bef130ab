package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focusforge/pkg/focus"
	"focusforge/pkg/notify"
)

// --- Mocks ---

type mockSessions struct {
	mu      sync.Mutex
	created []focus.Session
	err     error
}

func (m *mockSessions) Create(_ context.Context, s *focus.Session) (*focus.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	s.ID = "sess-1"
	m.created = append(m.created, *s)
	return s, nil
}

func (m *mockSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type mockPoints struct {
	mu    sync.Mutex
	total int
	calls int
	err   error
}

func (m *mockPoints) IncrementPoints(_ context.Context, _ string, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return 0, m.err
	}
	m.total += n
	return m.total, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(level notify.Level, message, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notify.Notice{Level: level, Message: message, Description: description})
}

func (r *recordingNotifier) last() notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notify.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fixture struct {
	engine    *Engine
	sessions  *mockSessions
	points    *mockPoints
	notices   *recordingNotifier
	completed int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{sessions: &mockSessions{}, points: &mockPoints{}, notices: &recordingNotifier{}}
	f.engine = New(Config{
		UserID:     "u1",
		Sessions:   f.sessions,
		Points:     f.points,
		Notifier:   f.notices,
		OnComplete: func() { f.completed++ },
		Now:        func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) },
		// tests drive Tick directly; this ticker never fires
		NewTicker: func(time.Duration) Ticker { return &fakeTicker{c: make(chan time.Time)} },
	})
	t.Cleanup(f.engine.Close)
	return f
}

// setRemaining puts the clock at m:s while Running.
func (f *fixture) setRemaining(m, s int) {
	f.engine.mu.Lock()
	f.engine.state.Minutes = m
	f.engine.state.Seconds = s
	f.engine.mu.Unlock()
}

// --- Tests ---

func TestInitialState(t *testing.T) {
	f := newFixture(t)
	s := f.engine.State()
	if s.Phase != Idle || s.Display() != "25:00" || s.Running() || s.StartedAt != nil {
		t.Errorf("initial state = %+v", s)
	}
	if s.Progress() != 0 {
		t.Errorf("progress = %v, want 0", s.Progress())
	}
}

func TestPhaseGuards(t *testing.T) {
	f := newFixture(t)
	e := f.engine

	if e.Pause() {
		t.Error("Pause from Idle reported true")
	}
	if e.Tick() {
		t.Error("Tick from Idle reported true")
	}
	if !e.Start() {
		t.Fatal("Start from Idle reported false")
	}
	if e.State().StartedAt == nil {
		t.Error("Start did not record a start time")
	}
	if e.Start() {
		t.Error("Start while Running reported true")
	}
	if !e.Pause() {
		t.Fatal("Pause while Running reported false")
	}
	if e.Tick() {
		t.Error("Tick while Paused reported true")
	}
	if !e.Start() {
		t.Error("Start from Paused reported false")
	}
}

func TestTickSequenceReachesZeroThenCompletesOnce(t *testing.T) {
	f := newFixture(t)
	e := f.engine
	e.Start()

	prev := e.State().Remaining()
	for i := 0; i < totalSeconds; i++ {
		if !e.Tick() {
			t.Fatalf("tick %d reported false", i)
		}
		cur := e.State().Remaining()
		if prev-cur != time.Second {
			t.Fatalf("tick %d: %v -> %v, want one second less", i, prev, cur)
		}
		prev = cur
	}
	s := e.State()
	if s.Display() != "00:00" || !s.Running() {
		t.Fatalf("after %d ticks: %+v", totalSeconds, s)
	}
	if s.Progress() != 1 {
		t.Errorf("progress at 00:00 = %v, want 1", s.Progress())
	}
	if f.sessions.count() != 0 {
		t.Fatal("completed before the tick at 00:00")
	}

	e.Tick()
	if f.sessions.count() != 1 {
		t.Fatalf("sessions recorded = %d, want 1", f.sessions.count())
	}
	if f.completed != 1 {
		t.Errorf("completion callback ran %d times, want 1", f.completed)
	}
	if e.Tick() {
		t.Error("tick after completion reported true")
	}
	if f.sessions.count() != 1 {
		t.Errorf("second completion recorded")
	}
}

func TestCompletionPersistsAndResets(t *testing.T) {
	f := newFixture(t)
	e := f.engine
	e.Start()
	f.setRemaining(0, 0)

	e.Tick()

	if f.sessions.count() != 1 {
		t.Fatalf("sessions recorded = %d, want 1", f.sessions.count())
	}
	got := f.sessions.created[0]
	if got.UserID != "u1" || got.DurationMinutes != 25 || got.PointsEarned != 10 {
		t.Errorf("session = %+v", got)
	}
	if f.points.total != 10 {
		t.Errorf("points = %d, want 10", f.points.total)
	}
	s := e.State()
	if s.Phase != Idle || s.Minutes != 25 || s.Seconds != 0 || s.StartedAt != nil {
		t.Errorf("after completion state = %+v, want reset", s)
	}
	if n := f.notices.last(); n.Level != notify.Success {
		t.Errorf("notice = %+v, want success", n)
	}
}

func TestCompletionFailureStaysStopped(t *testing.T) {
	cases := []struct {
		name        string
		sessionErr  error
		pointsErr   error
		wantPointsC int
	}{
		{"session insert fails", errors.New("db down"), nil, 0},
		{"points increment fails", nil, errors.New("rpc failed"), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.sessions.err = tc.sessionErr
			f.points.err = tc.pointsErr
			e := f.engine
			e.Start()
			f.setRemaining(0, 0)

			e.Tick()

			s := e.State()
			if s.Phase != Paused || s.Display() != "00:00" {
				t.Errorf("state = %+v, want Paused at 00:00", s)
			}
			if f.completed != 0 {
				t.Error("completion callback ran after failure")
			}
			if f.points.calls != tc.wantPointsC {
				t.Errorf("increment calls = %d, want %d", f.points.calls, tc.wantPointsC)
			}
			n := f.notices.last()
			if n.Level != notify.Error || n.Message != "Failed to save session" {
				t.Errorf("notice = %+v", n)
			}
			// no automatic retry
			if e.Tick() {
				t.Error("tick while stopped reported true")
			}
		})
	}
}

func TestCompletionRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.engine.cfg.Points = panicPoints{}
	f.engine.Start()
	f.setRemaining(0, 0)

	f.engine.Tick()

	if got := f.engine.State().Phase; got != Paused {
		t.Errorf("phase = %v, want paused", got)
	}
}

type panicPoints struct{}

func (panicPoints) IncrementPoints(context.Context, string, int) (int, error) {
	panic("boom")
}

func TestResetFromAnyPhase(t *testing.T) {
	setups := map[string]func(e *Engine){
		"idle":    func(e *Engine) {},
		"running": func(e *Engine) { e.Start(); e.Tick(); e.Tick() },
		"paused":  func(e *Engine) { e.Start(); e.Tick(); e.Pause() },
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			setup(f.engine)
			f.engine.Reset()
			s := f.engine.State()
			if s.Phase != Idle || s.Minutes != 25 || s.Seconds != 0 || s.Running() || s.StartedAt != nil {
				t.Errorf("after reset = %+v", s)
			}
		})
	}
}

func TestDisplayAndProgress(t *testing.T) {
	s := State{Minutes: 12, Seconds: 30}
	if s.Display() != "12:30" {
		t.Errorf("Display() = %q", s.Display())
	}
	if p := s.Progress(); p != 0.5 {
		t.Errorf("Progress() = %v, want 0.5", p)
	}
	s = State{Minutes: 3, Seconds: 5}
	if s.Display() != "03:05" {
		t.Errorf("Display() = %q", s.Display())
	}
}

func TestTickerGoroutine(t *testing.T) {
	ticker := &fakeTicker{c: make(chan time.Time)}
	changes := make(chan State, 16)
	e := New(Config{
		UserID:    "u1",
		Sessions:  &mockSessions{},
		Points:    &mockPoints{},
		OnChange:  func(s State) { changes <- s },
		NewTicker: func(time.Duration) Ticker { return ticker },
	})

	e.Start()
	<-changes // the Start itself

	ticker.c <- time.Now()
	select {
	case s := <-changes:
		if s.Display() != "24:59" {
			t.Errorf("after one tick = %s, want 24:59", s.Display())
		}
	case <-time.After(time.Second):
		t.Fatal("tick not processed")
	}

	e.Close()
	if !ticker.isStopped() {
		t.Error("ticker not stopped on Close")
	}
	select {
	case ticker.c <- time.Now():
		t.Error("tick goroutine still receiving after Close")
	case <-time.After(50 * time.Millisecond):
	}
	if e.Start() {
		t.Error("Start after Close reported true")
	}
}

func TestPauseStopsTicker(t *testing.T) {
	ticker := &fakeTicker{c: make(chan time.Time)}
	e := New(Config{
		UserID:    "u1",
		Sessions:  &mockSessions{},
		Points:    &mockPoints{},
		NewTicker: func(time.Duration) Ticker { return ticker },
	})
	defer e.Close()

	e.Start()
	e.Pause()

	deadline := time.Now().Add(time.Second)
	for !ticker.isStopped() {
		if time.Now().After(deadline) {
			t.Fatal("ticker not stopped after Pause")
		}
		time.Sleep(time.Millisecond)
	}
	if got := e.State().Display(); got != "25:00" {
		t.Errorf("display = %s, want frozen at 25:00", got)
	}
}

// blockingSessions holds Create until release is closed.
type blockingSessions struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSessions) Create(_ context.Context, s *focus.Session) (*focus.Session, error) {
	close(b.entered)
	<-b.release
	return s, nil
}

func TestCompletionDoesNotResetNewerSession(t *testing.T) {
	f := newFixture(t)
	bs := &blockingSessions{entered: make(chan struct{}), release: make(chan struct{})}
	f.engine.cfg.Sessions = bs
	e := f.engine
	e.Start()
	f.setRemaining(0, 0)

	done := make(chan struct{})
	go func() {
		e.Tick()
		close(done)
	}()
	<-bs.entered
	if got := e.State().Phase; got != Completing {
		t.Fatalf("phase = %v, want completing", got)
	}

	e.Reset()
	if !e.Start() {
		t.Fatal("Start after Reset reported false")
	}
	e.Tick()

	close(bs.release)
	<-done

	s := e.State()
	if s.Phase != Running || s.Display() != "24:59" {
		t.Errorf("state = %v %s, want running 24:59", s.Phase, s.Display())
	}
	if f.points.total != 10 {
		t.Errorf("points = %d, want 10", f.points.total)
	}
	if f.completed != 1 {
		t.Errorf("completion callback ran %d times, want 1", f.completed)
	}
}
