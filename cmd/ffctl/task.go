package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"focusforge/pkg/task"
)

func (a *app) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task operations (list, get, add, done, undo, edit, rm, move)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.requireUser()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tasks in board order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := s.Tasks.List(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			if a.short() {
				a.printShortTasks(tasks)
			} else {
				a.printJSON(tasks)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.Tasks.Get(cmd.Context(), a.user, args[0])
			if err != nil {
				return err
			}
			a.printJSON(t)
			return nil
		},
	})

	var priority string
	add := &cobra.Command{
		Use:   "add <title...>",
		Short: "Append a task to the end of the board",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pr, err := task.ParsePriority(priority)
			if err != nil {
				return err
			}
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			max, err := s.Tasks.MaxPosition(ctx, a.user)
			if err != nil {
				return err
			}
			t, err := s.Tasks.Create(ctx, &task.Task{
				UserID:   a.user,
				Title:    strings.Join(args, " "),
				Priority: pr,
				Position: max + 1,
			})
			if err != nil {
				return err
			}
			a.printJSON(t)
			return nil
		},
	}
	add.Flags().StringVarP(&priority, "priority", "p", "medium", "low, medium or high")
	cmd.AddCommand(add)

	cmd.AddCommand(a.completeCmd("done", true), a.completeCmd("undo", false))

	var title, editPriority string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title or priority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p task.Patch
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("priority") {
				pr := task.Priority(editPriority)
				p.Priority = &pr
			}
			if p.Empty() {
				return fmt.Errorf("nothing to change: pass --title or --priority")
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := s.Tasks.Update(cmd.Context(), a.user, args[0], p)
			if err != nil {
				return err
			}
			a.printJSON(t)
			return nil
		},
	}
	edit.Flags().StringVar(&title, "title", "", "new title")
	edit.Flags().StringVarP(&editPriority, "priority", "p", "", "new priority")
	cmd.AddCommand(edit)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Tasks.Delete(cmd.Context(), a.user, args[0]); err != nil {
				return err
			}
			a.printJSON(map[string]string{"deleted": args[0]})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <id> <target-id>",
		Short: "Move a task into the slot held by another, shifting the rest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			tasks, err := s.Tasks.List(ctx, a.user)
			if err != nil {
				return err
			}
			moved, ok := task.Move(tasks, args[0], args[1])
			if !ok {
				return fmt.Errorf("cannot move %s onto %s", args[0], args[1])
			}
			if err := s.Tasks.Reposition(ctx, a.user, task.IDs(moved)); err != nil {
				return err
			}
			if a.short() {
				a.printShortTasks(moved)
			} else {
				a.printJSON(moved)
			}
			return nil
		},
	})

	return cmd
}

func (a *app) completeCmd(use string, completed bool) *cobra.Command {
	short := "Mark a task completed"
	if !completed {
		short = "Mark a task not completed"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			p := task.Patch{Completed: &completed}
			if completed {
				now := time.Now()
				p.CompletedAt = &now
			}
			t, err := s.Tasks.Update(cmd.Context(), a.user, args[0], p)
			if err != nil {
				return err
			}
			a.printJSON(t)
			return nil
		},
	}
}

func (a *app) printShortTasks(tasks []task.Task) {
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(a.out, "%3d  [%s]  %-8s  %-6s  %s\n", t.Position, mark, truncStr(t.ID, 8), t.Priority, truncStr(t.Title, 60))
	}
}
