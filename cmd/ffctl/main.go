// Command ffctl inspects and edits focusforge data directly in the database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"focusforge/internal/api"
	"focusforge/internal/config"
	"focusforge/internal/db"
)

type app struct {
	cfg    *config.Config
	user   string
	format string
	stores *db.Stores
	out    io.Writer
}

func main() {
	a := &app{out: os.Stdout}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ffctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ffctl",
		Short:         "Operate a focusforge database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.user == "" {
				a.user = cfg.UserID
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.user, "user", "u", "", "user id (default $USER_ID)")
	root.PersistentFlags().StringVar(&a.format, "format", "json", "output format: json or short")

	root.AddCommand(
		a.initCmd(),
		a.statusCmd(),
		a.tokenCmd(),
		a.taskCmd(),
		a.sessionCmd(),
		a.pointsCmd(),
		a.usersCmd(),
	)
	return root
}

// open connects on first use. db.Open also creates missing tables.
func (a *app) open(ctx context.Context) (*db.Stores, error) {
	if a.stores != nil {
		return a.stores, nil
	}
	s, err := db.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.stores = s
	return s, nil
}

func (a *app) close() {
	if a.stores != nil {
		a.stores.Close()
		a.stores = nil
	}
}

func (a *app) requireUser() error {
	if a.user == "" {
		return fmt.Errorf("--user or USER_ID is required")
	}
	return nil
}

func (a *app) short() bool { return a.format == "short" }

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and the points function",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			a.printJSON(map[string]string{"status": "ok", "backend": s.Backend, "message": "all tables initialized"})
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show counts for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			tasks, err := s.Tasks.Count(ctx, a.user)
			if err != nil {
				return fmt.Errorf("count tasks: %w", err)
			}
			completed, err := s.Tasks.CompletedCount(ctx, a.user)
			if err != nil {
				return fmt.Errorf("count completed tasks: %w", err)
			}
			sessions, err := s.Sessions.Count(ctx, a.user)
			if err != nil {
				return fmt.Errorf("count sessions: %w", err)
			}
			points, err := s.Users.Points(ctx, a.user)
			if err != nil {
				return fmt.Errorf("read points: %w", err)
			}
			a.printJSON(map[string]any{
				"user_id":         a.user,
				"backend":         s.Backend,
				"tasks":           tasks,
				"completed_tasks": completed,
				"sessions":        sessions,
				"points":          points,
			})
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for --user signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireUser(); err != nil {
				return err
			}
			tok, err := api.IssueToken(a.cfg.JWTSecret, a.user, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for none")
	return cmd
}

func (a *app) printJSON(v any) {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "ffctl: encode JSON: %v\n", err)
		os.Exit(1)
	}
}

func truncStr(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
