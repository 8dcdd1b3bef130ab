package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focusforge/pkg/dashboard"
	"focusforge/pkg/notify"
	"focusforge/pkg/stats"
	"focusforge/pkg/task"
	"focusforge/pkg/timer"
)

const (
	toastTTL  = 4 * time.Second
	maxToasts = 3
)

// changedMsg is sent from component callbacks, off the UI goroutine.
type changedMsg struct{}

type noticeMsg notify.Notice

type expireToastsMsg struct{}

type loadedMsg struct{}

type model struct {
	d       *dashboard.Dashboard
	notices <-chan notify.Notice

	keys     keyMap
	help     help.Model
	input    textinput.Model
	barWidth int
	adding   bool
	priority task.Priority
	cursor   int
	toasts   []notify.Notice
	width    int
}

func newModel(d *dashboard.Dashboard, notices <-chan notify.Notice) model {
	ti := textinput.New()
	ti.Placeholder = "What needs to get done?"
	ti.CharLimit = 200
	ti.Prompt = "+ "

	return model{
		d:        d,
		notices:  notices,
		keys:     defaultKeyMap(),
		help:     help.New(),
		input:    ti,
		barWidth: 30,
		priority: task.Medium,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForNotice(m.notices))
}

func (m model) ctx() context.Context { return m.d.Context() }

func (m model) load() tea.Cmd {
	return func() tea.Msg {
		m.d.Load(m.ctx())
		return loadedMsg{}
	}
}

// run performs a blocking component call off the UI goroutine. Components
// report their own changes, so the result is discarded.
func run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func waitForNotice(ch <-chan notify.Notice) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.barWidth = min(40, max(10, msg.Width-12))
		return m, nil

	case changedMsg, loadedMsg:
		m.clampCursor()
		return m, nil

	case noticeMsg:
		m.toasts = append(m.toasts, notify.Notice(msg))
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		return m, tea.Batch(
			waitForNotice(m.notices),
			tea.Tick(toastTTL, func(time.Time) tea.Msg { return expireToastsMsg{} }),
		)

	case expireToastsMsg:
		cutoff := time.Now().Add(-toastTTL)
		kept := m.toasts[:0]
		for _, n := range m.toasts {
			if n.At.After(cutoff) {
				kept = append(kept, n)
			}
		}
		m.toasts = kept
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.adding = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		title := m.input.Value()
		m.d.Board.SetInput(title)
		pr := m.priority
		m.input.SetValue("")
		m.adding = false
		m.input.Blur()
		board := m.d.Board
		return m, run(func() { board.Submit(m.ctx(), pr) })
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tasks := m.d.Board.Tasks()
	selected := ""
	if m.cursor < len(tasks) {
		selected = tasks[m.cursor].ID
	}
	ctx := m.ctx()
	board := m.d.Board

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.adding = true
		m.input.SetValue(board.Input())
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Priority):
		m.priority = nextPriority(m.priority)
	case key.Matches(msg, m.keys.Timer):
		m.d.Timer.Toggle()
	case key.Matches(msg, m.keys.Reset):
		m.d.Timer.Reset()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	case selected == "":
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		return m, run(func() { board.ToggleComplete(ctx, selected) })
	case key.Matches(msg, m.keys.Delete):
		return m, run(func() { board.Delete(ctx, selected) })
	case key.Matches(msg, m.keys.MoveUp):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, run(func() { board.MoveUp(ctx, selected) })
	case key.Matches(msg, m.keys.MoveDown):
		if m.cursor < len(tasks)-1 {
			m.cursor++
		}
		return m, run(func() { board.MoveDown(ctx, selected) })
	}
	return m, nil
}

func (m *model) clampCursor() {
	n := len(m.d.Board.Tasks())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
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

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("FocusForge"))
	b.WriteString(mutedStyle.Render("  " + m.d.UserID))
	b.WriteString("\n\n")

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		cardStyle.Render(m.timerView(m.d.Timer.State())),
		" ",
		cardStyle.Render(m.statsView(m.d.Stats.Snapshot())),
	)
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(cardStyle.Render(m.boardView()))
	b.WriteString("\n")

	for _, n := range m.toasts {
		b.WriteString(toastStyles[n.Level].Render(n.String()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) timerView(s timer.State) string {
	var status string
	switch s.Phase {
	case timer.Running:
		status = "Focus time"
	case timer.Paused:
		status = "Paused"
	case timer.Completing:
		status = "Saving session..."
	default:
		status = "Ready to focus"
	}
	return strings.Join([]string{
		titleStyle.Render("Pomodoro"),
		clockStyle.Render(s.Display()) + "  " + mutedStyle.Render(status),
		progressBar(s.Progress(), m.barWidth),
	}, "\n")
}

func (m model) statsView(s stats.Snapshot) string {
	lines := []string{
		titleStyle.Render("Progress"),
		fmt.Sprintf("Points    %d", s.Points),
		fmt.Sprintf("Sessions  %d", s.Sessions),
		mutedStyle.Render(fmt.Sprintf("Next reward at %d points", s.NextReward)),
	}
	if s.RewardUnlocked {
		lines = append(lines, quoteStyle.Render(wrap(`"`+s.Quote+`"`, 40)))
	}
	return strings.Join(lines, "\n")
}

func (m model) boardView() string {
	tasks := m.d.Board.Tasks()
	lines := []string{titleStyle.Render("Tasks") + mutedStyle.Render(fmt.Sprintf("  new: %s", m.priority))}
	if m.adding {
		lines = append(lines, m.input.View())
	}
	if len(tasks) == 0 {
		lines = append(lines, mutedStyle.Render("No tasks yet. Press a to add one."))
	}
	for i, t := range tasks {
		check := "[ ]"
		title := t.Title
		if t.Completed {
			check = "[x]"
			title = doneStyle.Render(title)
		}
		cursor := "  "
		if i == m.cursor && !m.adding {
			cursor = cursorStyle.Render("> ")
		}
		pr := priorityStyles[t.Priority].Render(fmt.Sprintf("%-6s", t.Priority))
		lines = append(lines, fmt.Sprintf("%s%s %s %s", cursor, check, pr, title))
	}
	return strings.Join(lines, "\n")
}

func progressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	filled = min(width, max(0, filled))
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}
