package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"focusforge/pkg/focus"
	"focusforge/pkg/task"
	"focusforge/pkg/user"
)

// QuoteSource fetches a motivational quote. quote.Client satisfies it.
type QuoteSource interface {
	Random(ctx context.Context) (string, error)
}

// Options configure a Server.
type Options struct {
	// JWTSecret verifies bearer tokens. Empty means development mode:
	// the caller's id is read from X-User-ID.
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
	// WASMDir holds the compiled dashboard served at /.
	WASMDir string
	// Ping checks the database for /health. Nil skips the check.
	Ping func(ctx context.Context) error
	Log  *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	tasks    task.Store
	sessions focus.Store
	users    user.Store
	quotes   QuoteSource
	opts     Options
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server.
func New(tasks task.Store, sessions focus.Store, users user.Store, quotes QuoteSource, opts Options) *Server {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.RateLimitBurst < 1 {
		opts.RateLimitBurst = 10
	}
	if opts.WASMDir == "" {
		opts.WASMDir = "web"
	}
	s := &Server{
		tasks:    tasks,
		sessions: sessions,
		users:    users,
		quotes:   quotes,
		opts:     opts,
		log:      opts.Log.With("component", "api"),
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(s.log))
	r.Use(Recovery(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(s.opts.JWTSecret))
		r.Use(RateLimit(s.opts.RateLimitRPS, s.opts.RateLimitBurst))

		r.Get("/status", s.handleStatus)

		// Tasks
		r.Get("/tasks", s.handleTaskList)
		r.Post("/tasks", s.handleTaskCreate)
		r.Put("/tasks/order", s.handleTaskReorder)
		r.Get("/tasks/{id}", s.handleTaskGet)
		r.Patch("/tasks/{id}", s.handleTaskUpdate)
		r.Delete("/tasks/{id}", s.handleTaskDelete)

		// Sessions
		r.Get("/sessions", s.handleSessionList)
		r.Post("/sessions", s.handleSessionCreate)
		r.Get("/sessions/count", s.handleSessionCount)

		// Points and rewards
		r.Get("/points", s.handlePoints)
		r.Post("/points/increment", s.handlePointsIncrement)
		r.Get("/quote", s.handleQuote)
	})

	// Static files (Gio WASM dashboard)
	r.Get("/*", http.FileServer(http.Dir(s.opts.WASMDir)).ServeHTTP)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(r.Context()); err != nil {
			s.log.Error("health: database ping", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := UserID(ctx)
	taskCount, err := s.tasks.Count(ctx, uid)
	if err != nil {
		s.statusError(w, "tasks", err)
		return
	}
	completed, err := s.tasks.CompletedCount(ctx, uid)
	if err != nil {
		s.statusError(w, "completed_tasks", err)
		return
	}
	sessions, err := s.sessions.Count(ctx, uid)
	if err != nil {
		s.statusError(w, "sessions", err)
		return
	}
	points, err := s.users.Points(ctx, uid)
	if err != nil {
		s.statusError(w, "points", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":         uid,
		"tasks":           taskCount,
		"completed_tasks": completed,
		"sessions":        sessions,
		"points":          points,
	})
}

func (s *Server) statusError(w http.ResponseWriter, field string, err error) {
	s.log.Warn("status: count failed", "field", field, "error", err)
	writeError(w, 500, "count "+field+": "+err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
