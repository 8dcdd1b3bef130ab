package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"focusforge/pkg/focus"
)

func (a *app) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Focus session operations (list, count, add)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.requireUser()
		},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			sessions, err := s.Sessions.List(cmd.Context(), a.user, limit)
			if err != nil {
				return err
			}
			if a.short() {
				for _, sess := range sessions {
					fmt.Fprintf(a.out, "%s  %-8s  %2dm  +%d\n", sess.CreatedAt.Format("2006-01-02 15:04"), truncStr(sess.ID, 8), sess.DurationMinutes, sess.PointsEarned)
				}
				return nil
			}
			a.printJSON(sessions)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "count",
		Short: "Count completed sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := s.Sessions.Count(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			a.printJSON(map[string]int{"count": n})
			return nil
		},
	})

	// add records a session and credits its points, as the timer does on
	// completion.
	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Record a completed 25 minute session and award its points",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			sess, err := s.Sessions.Create(ctx, focus.NewSession(a.user))
			if err != nil {
				return err
			}
			total, err := s.Users.IncrementPoints(ctx, a.user, sess.PointsEarned)
			if err != nil {
				return fmt.Errorf("session %s saved but points not awarded: %w", sess.ID, err)
			}
			a.printJSON(map[string]any{"session": sess, "points": total})
			return nil
		},
	})

	return cmd
}

func (a *app) pointsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Points operations (get, add)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.requireUser()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the user's points",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			n, err := s.Users.Points(cmd.Context(), a.user)
			if err != nil {
				return err
			}
			a.printJSON(map[string]int{"points": n})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <n>",
		Short: "Atomically add n points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("points must be a positive integer, got %q", args[0])
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			total, err := s.Users.IncrementPoints(cmd.Context(), a.user, n)
			if err != nil {
				return err
			}
			a.printJSON(map[string]int{"points": total})
			return nil
		},
	})

	return cmd
}

func (a *app) usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List known users and their points",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			users, err := s.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			if a.short() {
				for _, u := range users {
					fmt.Fprintf(a.out, "%-24s  %6d\n", truncStr(u.ID, 24), u.Points)
				}
				return nil
			}
			a.printJSON(users)
			return nil
		},
	}
}
