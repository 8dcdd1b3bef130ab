package main

import (
	"image/color"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"focusforge/internal/config"
	"focusforge/pkg/client"
	"focusforge/pkg/dashboard"
	"focusforge/pkg/focus"
	"focusforge/pkg/notify"
	"focusforge/pkg/task"
)

var theme *material.Theme

// Pages
const (
	pageFocus = iota
	pageTasks
	pageHistory
)

const toastTTL = 4 * time.Second

type UI struct {
	d      *dashboard.Dashboard
	api    *client.Client
	log    *slog.Logger
	window *app.Window

	currentPage int

	// Nav buttons
	navFocus   widget.Clickable
	navTasks   widget.Clickable
	navHistory widget.Clickable

	// Timer
	startBtn widget.Clickable
	resetBtn widget.Clickable

	// Tasks
	taskList      widget.List
	newTaskEditor widget.Editor
	createTaskBtn widget.Clickable
	priorityBtn   widget.Clickable
	priority      task.Priority
	rows          []taskRow

	// History
	historyList widget.List
	refreshBtn  widget.Clickable

	mu       sync.Mutex
	sessions []focus.Session
	toasts   []notify.Notice
}

type taskRow struct {
	toggle, up, down, del widget.Clickable
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stderr)

	base := cfg.APIBase
	// Served by cmd/server: talk to the origin the page came from.
	if runtime.GOOS == "js" && os.Getenv("API_BASE") == "" {
		base = "/"
	}
	userID := cfg.UserID
	if userID == "" {
		userID = "local"
	}

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0xC0, G: 0x40, B: 0x40, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	w := new(app.Window)
	ui := &UI{
		api:      client.New(base, cfg.APIToken, userID),
		log:      logger,
		window:   w,
		priority: task.Medium,
	}
	ui.taskList.Axis = layout.Vertical
	ui.historyList.Axis = layout.Vertical
	ui.newTaskEditor.SingleLine = true
	ui.newTaskEditor.Submit = true

	bus := notify.NewBus(logger)
	ui.d = dashboard.New(userID, dashboard.Backends{
		Tasks:    ui.api.Tasks,
		Sessions: ui.api.Sessions,
		Users:    ui.api.Users,
		Quotes:   ui.api.Quotes,
	}, dashboard.Options{
		Log:             logger,
		Notifier:        bus,
		CompleteTimeout: cfg.CompleteTimeout,
		OnChange:        w.Invalidate,
	})

	go ui.watchNotices(bus)
	go ui.d.Load(ui.d.Context())
	go ui.fetchSessions()

	go func() {
		w.Option(app.Title("FocusForge"))
		w.Option(app.Size(unit.Dp(1000), unit.Dp(720)))
		err := ui.run(w)
		ui.d.Close()
		if err != nil {
			logger.Error("window", "error", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.handleClicks(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (ui *UI) handleClicks(gtx layout.Context) {
	ctx := ui.d.Context()
	board := ui.d.Board

	if ui.navFocus.Clicked(gtx) {
		ui.currentPage = pageFocus
	}
	if ui.navTasks.Clicked(gtx) {
		ui.currentPage = pageTasks
	}
	if ui.navHistory.Clicked(gtx) {
		ui.currentPage = pageHistory
		go ui.fetchSessions()
	}
	if ui.refreshBtn.Clicked(gtx) {
		go ui.fetchSessions()
	}

	if ui.startBtn.Clicked(gtx) {
		ui.d.Timer.Toggle()
	}
	if ui.resetBtn.Clicked(gtx) {
		ui.d.Timer.Reset()
	}

	if ui.priorityBtn.Clicked(gtx) {
		ui.priority = nextPriority(ui.priority)
	}
	submit := ui.createTaskBtn.Clicked(gtx)
	for {
		e, ok := ui.newTaskEditor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := e.(widget.SubmitEvent); ok {
			submit = true
		}
	}
	if submit {
		board.SetInput(ui.newTaskEditor.Text())
		ui.newTaskEditor.SetText("")
		pr := ui.priority
		go board.Submit(ctx, pr)
	}

	tasks := board.Tasks()
	for len(ui.rows) < len(tasks) {
		ui.rows = append(ui.rows, taskRow{})
	}
	for i := range tasks {
		id := tasks[i].ID
		r := &ui.rows[i]
		if r.toggle.Clicked(gtx) {
			go board.ToggleComplete(ctx, id)
		}
		if r.up.Clicked(gtx) {
			go board.MoveUp(ctx, id)
		}
		if r.down.Clicked(gtx) {
			go board.MoveDown(ctx, id)
		}
		if r.del.Clicked(gtx) {
			go board.Delete(ctx, id)
		}
	}
}

func nextPriority(p task.Priority) task.Priority {
	switch p {
	case task.Low:
		return task.Medium
	case task.Medium:
		return task.High
	}
	return task.Low
}

// Data fetching

func (ui *UI) watchNotices(bus *notify.Bus) {
	ch := bus.Subscribe()
	for n := range ch {
		ui.mu.Lock()
		ui.toasts = append(ui.toasts, n)
		ui.mu.Unlock()
		if n.Level == notify.Success {
			go ui.fetchSessions()
		}
		ui.window.Invalidate()
	}
}

// liveToasts drops expired notices and returns the rest.
func (ui *UI) liveToasts(now time.Time) []notify.Notice {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	kept := ui.toasts[:0]
	for _, n := range ui.toasts {
		if now.Sub(n.At) < toastTTL {
			kept = append(kept, n)
		}
	}
	ui.toasts = kept
	return append([]notify.Notice(nil), kept...)
}

func (ui *UI) fetchSessions() {
	sessions, err := ui.api.Sessions.List(ui.d.Context(), ui.d.UserID, 50)
	if err != nil {
		ui.log.Error("fetch sessions", "error", err)
		return
	}
	ui.mu.Lock()
	ui.sessions = sessions
	ui.mu.Unlock()
	ui.window.Invalidate()
}

func (ui *UI) history() []focus.Session {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.sessions
}
