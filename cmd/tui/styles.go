package main

import (
	"github.com/charmbracelet/lipgloss"

	"focusforge/pkg/notify"
	"focusforge/pkg/task"
)

var (
	colorFg      = lipgloss.Color("#ABB2BF")
	colorMuted   = lipgloss.Color("#636B78")
	colorRed     = lipgloss.Color("#E06C75")
	colorGreen   = lipgloss.Color("#98C379")
	colorYellow  = lipgloss.Color("#E5C07B")
	colorBlue    = lipgloss.Color("#61AFEF")
	colorMagenta = lipgloss.Color("#C678DD")
	colorBorder  = lipgloss.Color("#3F4451")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true).
			PaddingLeft(1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorMagenta).
			Bold(true)

	clockStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Strikethrough(true)

	barFillStyle = lipgloss.NewStyle().Foreground(colorRed)

	quoteStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Italic(true)

	toastStyles = map[notify.Level]lipgloss.Style{
		notify.Info:    lipgloss.NewStyle().Foreground(colorBlue),
		notify.Success: lipgloss.NewStyle().Foreground(colorGreen),
		notify.Error:   lipgloss.NewStyle().Foreground(colorRed),
	}

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.High:   lipgloss.NewStyle().Foreground(colorRed),
		task.Medium: lipgloss.NewStyle().Foreground(colorYellow),
		task.Low:    lipgloss.NewStyle().Foreground(colorGreen),
	}
)
