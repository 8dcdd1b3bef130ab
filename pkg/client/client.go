// Package client is a typed HTTP client for the focusforge API. Its
// services satisfy the backend interfaces of the timer, board and stats
// packages, so front-ends run the same components against a remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"focusforge/pkg/focus"
	"focusforge/pkg/task"
)

var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Unwrap maps 401 to ErrUnauthorized and 404 to task.ErrNotFound.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return task.ErrNotFound
	}
	return nil
}

// Client talks to one API server.
type Client struct {
	base       string
	token      string
	userID     string
	httpClient *http.Client

	Tasks    *TaskService
	Sessions *SessionService
	Users    *UserService
	Quotes   *QuoteService
}

// New creates a Client. base is the server root, e.g. "http://localhost:8080/".
// token is sent as a bearer token when non-empty. userID is the identity
// used for calls that carry none of their own.
func New(base, token, userID string) *Client {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	c := &Client{
		base:       base,
		token:      token,
		userID:     userID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	c.Tasks = &TaskService{c: c}
	c.Sessions = &SessionService{c: c}
	c.Users = &UserService{c: c}
	c.Quotes = &QuoteService{c: c}
	return c
}

// Status mirrors GET /api/status.
type Status struct {
	UserID         string `json:"user_id"`
	Tasks          int    `json:"tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	Sessions       int    `json:"sessions"`
	Points         int    `json:"points"`
}

// Status returns the caller's counts.
func (c *Client) Status(ctx context.Context, userID string) (*Status, error) {
	var s Status
	if err := c.do(ctx, userID, http.MethodGet, "api/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "", http.MethodGet, "health", nil, nil)
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// userID goes out as X-User-ID, which the server honours only when it runs
// without a JWT secret.
func (c *Client) do(ctx context.Context, userID, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if userID == "" {
		userID = c.userID
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// TaskService covers /api/tasks. It satisfies board.Backend.
type TaskService struct{ c *Client }

func (s *TaskService) List(ctx context.Context, userID string) ([]task.Task, error) {
	var tasks []task.Task
	if err := s.c.do(ctx, userID, http.MethodGet, "api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (*task.Task, error) {
	var t task.Task
	if err := s.c.do(ctx, userID, http.MethodGet, "api/tasks/"+url.PathEscape(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

type createTaskRequest struct {
	Title    string        `json:"title"`
	Priority task.Priority `json:"priority,omitempty"`
	Position *int          `json:"position,omitempty"`
}

func (s *TaskService) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	pos := t.Position
	req := createTaskRequest{Title: t.Title, Priority: t.Priority, Position: &pos}
	var out task.Task
	if err := s.c.do(ctx, t.UserID, http.MethodPost, "api/tasks", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id string, p task.Patch) (*task.Task, error) {
	var out task.Task
	if err := s.c.do(ctx, userID, http.MethodPatch, "api/tasks/"+url.PathEscape(id), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	return s.c.do(ctx, userID, http.MethodDelete, "api/tasks/"+url.PathEscape(id), nil, nil)
}

func (s *TaskService) Reposition(ctx context.Context, userID string, ids []string) error {
	return s.c.do(ctx, userID, http.MethodPut, "api/tasks/order", map[string][]string{"ids": ids}, nil)
}

// SessionService covers /api/sessions. It satisfies timer.SessionRecorder
// and stats.SessionCounter.
type SessionService struct{ c *Client }

// Create records a session for sess.UserID. The server fixes the duration
// and reward, so only the owner is sent.
func (s *SessionService) Create(ctx context.Context, sess *focus.Session) (*focus.Session, error) {
	var out focus.Session
	if err := s.c.do(ctx, sess.UserID, http.MethodPost, "api/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *SessionService) List(ctx context.Context, userID string, limit int) ([]focus.Session, error) {
	var out []focus.Session
	path := fmt.Sprintf("api/sessions?limit=%d", limit)
	if err := s.c.do(ctx, userID, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SessionService) Count(ctx context.Context, userID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := s.c.do(ctx, userID, http.MethodGet, "api/sessions/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// UserService covers /api/points. It satisfies timer.PointsIncrementer.
type UserService struct{ c *Client }

type pointsBody struct {
	Points int `json:"points"`
}

func (s *UserService) Points(ctx context.Context, userID string) (int, error) {
	var out pointsBody
	if err := s.c.do(ctx, userID, http.MethodGet, "api/points", nil, &out); err != nil {
		return 0, err
	}
	return out.Points, nil
}

func (s *UserService) IncrementPoints(ctx context.Context, userID string, n int) (int, error) {
	var out pointsBody
	if err := s.c.do(ctx, userID, http.MethodPost, "api/points/increment", pointsBody{Points: n}, &out); err != nil {
		return 0, err
	}
	return out.Points, nil
}

// QuoteService reads the server's quote proxy. It satisfies stats.QuoteSource.
type QuoteService struct{ c *Client }

func (s *QuoteService) Random(ctx context.Context) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := s.c.do(ctx, "", http.MethodGet, "api/quote", nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}
