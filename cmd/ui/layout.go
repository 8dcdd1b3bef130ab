package main

import (
	"fmt"
	"image/color"
	"time"

	"gioui.org/font"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"focusforge/pkg/notify"
	"focusforge/pkg/stats"
	"focusforge/pkg/task"
	"focusforge/pkg/timer"
)

var (
	colorMuted   = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	colorGreen   = color.NRGBA{R: 0x00, G: 0xC0, B: 0x00, A: 0xFF}
	colorOrange  = color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	colorRed     = color.NRGBA{R: 0xFF, G: 0x40, B: 0x40, A: 0xFF}
	colorBlue    = color.NRGBA{R: 0x00, G: 0xA0, B: 0xFF, A: 0xFF}
	colorNoColor = color.NRGBA{A: 0}
)

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return ui.layoutNav(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Right: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(16)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						switch ui.currentPage {
						case pageTasks:
							return ui.layoutTasks(gtx)
						case pageHistory:
							return ui.layoutHistory(gtx)
						default:
							return ui.layoutFocus(gtx)
						}
					}),
					layout.Rigid(ui.layoutToasts),
				)
			})
		}),
	)
}

func (ui *UI) layoutNav(gtx layout.Context) layout.Dimensions {
	gtx.Constraints.Min.X = gtx.Dp(unit.Dp(180))
	gtx.Constraints.Max.X = gtx.Dp(unit.Dp(180))
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.H6(theme, "FocusForge")
				label.Color = theme.Palette.ContrastFg
				return label.Layout(gtx)
			})
		}),
		layout.Rigid(navBtn(theme, &ui.navFocus, "Focus", ui.currentPage == pageFocus)),
		layout.Rigid(navBtn(theme, &ui.navTasks, "Tasks", ui.currentPage == pageTasks)),
		layout.Rigid(navBtn(theme, &ui.navHistory, "History", ui.currentPage == pageHistory)),
	)
}

func navBtn(th *material.Theme, btn *widget.Clickable, label string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Top: unit.Dp(2), Bottom: unit.Dp(2), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th, btn, label)
			if active {
				b.Background = th.Palette.ContrastBg
			} else {
				b.Background = colorNoColor
			}
			b.Color = th.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

// layoutFocus is the timer card above the stats panel.
func (ui *UI) layoutFocus(gtx layout.Context) layout.Dimensions {
	s := ui.d.Timer.State()
	if s.Running() {
		// Repaint the clock even if a tick's change callback is missed.
		gtx.Execute(op.InvalidateCmd{At: gtx.Now.Add(time.Second)})
	}

	return layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceEnd}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Pomodoro").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.H2(theme, s.Display())
			label.Font.Weight = font.Bold
			return label.Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Body2(theme, timerStatus(s))
			label.Color = colorMuted
			return label.Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.ProgressBar(theme, float32(s.Progress())).Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := "Start"
			if s.Running() {
				label = "Pause"
			}
			return layout.Flex{}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					btn := material.Button(theme, &ui.startBtn, label)
					if s.Phase == timer.Completing {
						gtx = gtx.Disabled()
					}
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					btn := material.Button(theme, &ui.resetBtn, "Reset")
					btn.Background = colorMuted
					return btn.Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(32)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return ui.layoutStats(gtx, ui.d.Stats.Snapshot())
		}),
	)
}

func timerStatus(s timer.State) string {
	switch s.Phase {
	case timer.Running:
		return "Focus time"
	case timer.Paused:
		return "Paused"
	case timer.Completing:
		return "Saving session..."
	}
	return "Ready to focus"
}

func (ui *UI) layoutStats(gtx layout.Context, s stats.Snapshot) layout.Dimensions {
	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H6(theme, "Progress").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Body1(theme, fmt.Sprintf("Points: %d", s.Points)).Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Body1(theme, fmt.Sprintf("Completed sessions: %d", s.Sessions)).Layout(gtx)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Caption(theme, fmt.Sprintf("Next reward at %d points", s.NextReward))
			label.Color = colorMuted
			return label.Layout(gtx)
		}),
	}
	if s.RewardUnlocked {
		children = append(children,
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				label := material.Body1(theme, "“"+s.Quote+"”")
				label.Font.Style = font.Italic
				label.Color = colorOrange
				return label.Layout(gtx)
			}),
		)
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}

func (ui *UI) layoutTasks(gtx layout.Context) layout.Dimensions {
	tasks := ui.d.Board.Tasks()
	for len(ui.rows) < len(tasks) {
		ui.rows = append(ui.rows, taskRow{})
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Tasks").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					ed := material.Editor(theme, &ui.newTaskEditor, "What needs to get done?")
					return ed.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					btn := material.Button(theme, &ui.priorityBtn, string(ui.priority))
					btn.Background = priorityColor(ui.priority)
					return btn.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.createTaskBtn, "Add").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			if len(tasks) == 0 {
				label := material.Body2(theme, "No tasks yet. Add one above.")
				label.Color = colorMuted
				return label.Layout(gtx)
			}
			return material.List(theme, &ui.taskList).Layout(gtx, len(tasks), func(gtx layout.Context, i int) layout.Dimensions {
				return ui.layoutTaskRow(gtx, tasks[i], &ui.rows[i], i, len(tasks))
			})
		}),
	)
}

func (ui *UI) layoutTaskRow(gtx layout.Context, t task.Task, r *taskRow, i, n int) layout.Dimensions {
	return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.CheckBox(theme, &widget.Bool{Value: t.Completed}, "").Layout(gtx)
			}),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return material.Clickable(gtx, &r.toggle, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, t.Title)
							label.Font.Weight = font.Bold
							if t.Completed {
								label.Color = colorMuted
							}
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, string(t.Priority))
							label.Color = priorityColor(t.Priority)
							return label.Layout(gtx)
						}),
					)
				})
			}),
			layout.Rigid(rowBtn(&r.up, "↑", i == 0)),
			layout.Rigid(rowBtn(&r.down, "↓", i == n-1)),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				btn := material.Button(theme, &r.del, "Delete")
				btn.Background = colorRed
				return btn.Layout(gtx)
			}),
		)
	})
}

func rowBtn(btn *widget.Clickable, label string, disabled bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			if disabled {
				gtx = gtx.Disabled()
			}
			b := material.Button(theme, btn, label)
			b.Background = colorNoColor
			b.Color = theme.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

func priorityColor(p task.Priority) color.NRGBA {
	switch p {
	case task.High:
		return colorRed
	case task.Low:
		return colorGreen
	}
	return colorOrange
}

func (ui *UI) layoutHistory(gtx layout.Context) layout.Dimensions {
	sessions := ui.history()
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.H5(theme, "Session history").Layout(gtx)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.refreshBtn, "Refresh").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.historyList).Layout(gtx, len(sessions), func(gtx layout.Context, i int) layout.Dimensions {
				s := sessions[i]
				return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, s.CreatedAt.Local().Format("Mon 2 Jan 15:04"))
							label.Font.Weight = font.Bold
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, fmt.Sprintf("%d min  +%d points", s.DurationMinutes, s.PointsEarned))
							label.Color = colorGreen
							return label.Layout(gtx)
						}),
					)
				})
			})
		}),
	)
}

func (ui *UI) layoutToasts(gtx layout.Context) layout.Dimensions {
	toasts := ui.liveToasts(gtx.Now)
	if len(toasts) == 0 {
		return layout.Dimensions{}
	}
	gtx.Execute(op.InvalidateCmd{At: toasts[0].At.Add(toastTTL)})

	children := make([]layout.FlexChild, 0, len(toasts))
	for _, n := range toasts {
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Body2(theme, n.String())
			label.Color = noticeColor(n.Level)
			return layout.Inset{Top: unit.Dp(4)}.Layout(gtx, label.Layout)
		}))
	}
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}

func noticeColor(l notify.Level) color.NRGBA {
	switch l {
	case notify.Success:
		return colorGreen
	case notify.Error:
		return colorRed
	}
	return colorBlue
}
