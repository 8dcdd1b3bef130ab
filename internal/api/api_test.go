package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"focusforge/internal/db"
	"focusforge/pkg/focus"
	"focusforge/pkg/task"
)

type fakeQuotes struct {
	quote string
	err   error
	calls int
}

func (f *fakeQuotes) Random(ctx context.Context) (string, error) {
	f.calls++
	return f.quote, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupServer(t *testing.T, opts Options) (*Server, *fakeQuotes) {
	t.Helper()
	stores, err := db.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(stores.Close)

	q := &fakeQuotes{quote: "Stay hungry."}
	if opts.Log == nil {
		opts.Log = quietLogger()
	}
	if opts.RateLimitRPS == 0 {
		opts.RateLimitRPS = 1000
		opts.RateLimitBurst = 1000
	}
	if opts.Ping == nil {
		opts.Ping = stores.Ping
	}
	return New(stores.Tasks, stores.Sessions, stores.Users, q, opts), q
}

func request(t *testing.T, h http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func createTask(t *testing.T, h http.Handler, userID, title string) task.Task {
	t.Helper()
	w := request(t, h, "POST", "/api/tasks", userID, map[string]string{"title": title})
	if w.Code != 201 {
		t.Fatalf("create %q: status %d: %s", title, w.Code, w.Body.String())
	}
	return decode[task.Task](t, w)
}

func TestHealth(t *testing.T) {
	s, _ := setupServer(t, Options{})
	w := request(t, s, "GET", "/health", "", nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	s, _ = setupServer(t, Options{Ping: func(context.Context) error { return errors.New("db down") }})
	w = request(t, s, "GET", "/health", "", nil)
	if w.Code != 503 {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestDevAuthRequiresUserHeader(t *testing.T) {
	s, _ := setupServer(t, Options{})
	w := request(t, s, "GET", "/api/tasks", "", nil)
	if w.Code != 401 {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	s, _ := setupServer(t, Options{JWTSecret: secret})

	tok, err := IssueToken(secret, "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + tok, 200},
		{"missing", "", 401},
		{"garbage", "Bearer not-a-token", 401},
		{"no scheme", tok, 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/points", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			// Ignored when a secret is configured.
			req.Header.Set("X-User-ID", "mallory")
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	tok, err := IssueToken("one", "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	sub, err := ParseToken("one", tok)
	if err != nil || sub != "alice" {
		t.Fatalf("ParseToken = %q, %v", sub, err)
	}
	if _, err := ParseToken("two", tok); err == nil {
		t.Error("expected signature error with wrong secret")
	}

	expired, err := IssueToken("one", "alice", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken("one", expired); err == nil {
		t.Error("expected error for expired token")
	}

	if _, err := IssueToken("", "alice", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestTaskCreateAppendsPositions(t *testing.T) {
	s, _ := setupServer(t, Options{})
	for i, title := range []string{"A", "B", "C"} {
		got := createTask(t, s, "u1", title)
		if got.Position != i {
			t.Errorf("%s: position %d, want %d", title, got.Position, i)
		}
		if got.Priority != task.Medium {
			t.Errorf("%s: priority %q, want medium", title, got.Priority)
		}
		if got.UserID != "u1" {
			t.Errorf("%s: owner %q", title, got.UserID)
		}
	}

	w := request(t, s, "GET", "/api/tasks", "u1", nil)
	tasks := decode[[]task.Task](t, w)
	if len(tasks) != 3 || tasks[0].Title != "A" || tasks[2].Title != "C" {
		t.Fatalf("unexpected list: %+v", tasks)
	}
}

func TestTaskCreateValidation(t *testing.T) {
	s, _ := setupServer(t, Options{})
	tests := []struct {
		name string
		body any
	}{
		{"blank title", map[string]string{"title": "   "}},
		{"bad priority", map[string]string{"title": "x", "priority": "urgent"}},
		{"negative position", map[string]any{"title": "x", "position": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(t, s, "POST", "/api/tasks", "u1", tt.body)
			if w.Code != 400 {
				t.Errorf("status %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader("{"))
	req.Header.Set("X-User-ID", "u1")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != 400 {
		t.Errorf("invalid JSON: status %d, want 400", w.Code)
	}
}

func TestTaskUpdate(t *testing.T) {
	s, _ := setupServer(t, Options{})
	a := createTask(t, s, "u1", "A")

	w := request(t, s, "PATCH", "/api/tasks/"+a.ID, "u1", map[string]any{"completed": true, "priority": "high"})
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	got := decode[task.Task](t, w)
	if !got.Completed || got.CompletedAt == nil || got.Priority != task.High {
		t.Fatalf("unexpected task: %+v", got)
	}

	w = request(t, s, "PATCH", "/api/tasks/"+a.ID, "u1", map[string]any{"completed": false})
	got = decode[task.Task](t, w)
	if got.Completed || got.CompletedAt != nil {
		t.Fatalf("uncompleting should clear completed_at: %+v", got)
	}

	if w := request(t, s, "PATCH", "/api/tasks/"+a.ID, "u1", map[string]any{}); w.Code != 400 {
		t.Errorf("empty patch: status %d, want 400", w.Code)
	}
	if w := request(t, s, "PATCH", "/api/tasks/"+a.ID, "u1", map[string]any{"title": ""}); w.Code != 400 {
		t.Errorf("empty title: status %d, want 400", w.Code)
	}
	if w := request(t, s, "PATCH", "/api/tasks/missing", "u1", map[string]any{"title": "x"}); w.Code != 404 {
		t.Errorf("missing task: status %d, want 404", w.Code)
	}
}

func TestTaskOwnership(t *testing.T) {
	s, _ := setupServer(t, Options{})
	a := createTask(t, s, "u1", "mine")

	if w := request(t, s, "GET", "/api/tasks/"+a.ID, "u2", nil); w.Code != 404 {
		t.Errorf("get as other user: status %d, want 404", w.Code)
	}
	if w := request(t, s, "DELETE", "/api/tasks/"+a.ID, "u2", nil); w.Code != 404 {
		t.Errorf("delete as other user: status %d, want 404", w.Code)
	}
	w := request(t, s, "GET", "/api/tasks", "u2", nil)
	if tasks := decode[[]task.Task](t, w); len(tasks) != 0 {
		t.Errorf("u2 sees %d tasks", len(tasks))
	}
}

func TestTaskDelete(t *testing.T) {
	s, _ := setupServer(t, Options{})
	a := createTask(t, s, "u1", "A")

	if w := request(t, s, "DELETE", "/api/tasks/"+a.ID, "u1", nil); w.Code != 204 {
		t.Fatalf("status %d, want 204", w.Code)
	}
	if w := request(t, s, "GET", "/api/tasks/"+a.ID, "u1", nil); w.Code != 404 {
		t.Errorf("after delete: status %d, want 404", w.Code)
	}
}

func TestTaskReorder(t *testing.T) {
	s, _ := setupServer(t, Options{})
	a := createTask(t, s, "u1", "A")
	b := createTask(t, s, "u1", "B")
	c := createTask(t, s, "u1", "C")

	w := request(t, s, "PUT", "/api/tasks/order", "u1", map[string][]string{"ids": {b.ID, c.ID, a.ID}})
	if w.Code != 200 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	tasks := decode[[]task.Task](t, w)
	want := []string{"B", "C", "A"}
	for i, tk := range tasks {
		if tk.Title != want[i] || tk.Position != i {
			t.Errorf("index %d: %s@%d, want %s@%d", i, tk.Title, tk.Position, want[i], i)
		}
	}

	if w := request(t, s, "PUT", "/api/tasks/order", "u1", map[string][]string{"ids": {a.ID, a.ID}}); w.Code != 400 {
		t.Errorf("duplicate ids: status %d, want 400", w.Code)
	}
	if w := request(t, s, "PUT", "/api/tasks/order", "u1", map[string][]string{"ids": {}}); w.Code != 400 {
		t.Errorf("empty ids: status %d, want 400", w.Code)
	}
	if w := request(t, s, "PUT", "/api/tasks/order", "u1", map[string][]string{"ids": {a.ID, "nope"}}); w.Code != 404 {
		t.Errorf("unknown id: status %d, want 404", w.Code)
	}
	if w := request(t, s, "PUT", "/api/tasks/order", "u2", map[string][]string{"ids": {a.ID}}); w.Code != 404 {
		t.Errorf("other user's id: status %d, want 404", w.Code)
	}
	// Reordering a subset would leave A and B both at position 0.
	if w := request(t, s, "PUT", "/api/tasks/order", "u1", map[string][]string{"ids": {a.ID}}); w.Code != 400 {
		t.Errorf("partial ordering: status %d, want 400", w.Code)
	}

	// The failed batches above must not have moved anything.
	w = request(t, s, "GET", "/api/tasks", "u1", nil)
	tasks = decode[[]task.Task](t, w)
	if tasks[0].ID != b.ID || tasks[2].ID != a.ID {
		t.Errorf("order changed after failed reorder: %+v", tasks)
	}
	for i, tk := range tasks {
		if tk.Position != i {
			t.Errorf("%s at position %d, want %d", tk.Title, tk.Position, i)
		}
	}
}

func TestSessions(t *testing.T) {
	s, _ := setupServer(t, Options{})

	w := request(t, s, "POST", "/api/sessions", "u1", nil)
	if w.Code != 201 {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	sess := decode[focus.Session](t, w)
	if sess.DurationMinutes != focus.SessionMinutes || sess.PointsEarned != focus.SessionPoints {
		t.Errorf("defaults not applied: %+v", sess)
	}

	request(t, s, "POST", "/api/sessions", "u1", map[string]int{"duration_minutes": 25, "points_earned": 10})
	request(t, s, "POST", "/api/sessions", "u2", nil)

	w = request(t, s, "GET", "/api/sessions/count", "u1", nil)
	if got := decode[map[string]int](t, w); got["count"] != 2 {
		t.Errorf("count = %d, want 2", got["count"])
	}

	w = request(t, s, "GET", "/api/sessions?limit=1", "u1", nil)
	if got := decode[[]focus.Session](t, w); len(got) != 1 {
		t.Errorf("limit=1 returned %d", len(got))
	}

	if w := request(t, s, "POST", "/api/sessions", "u1", map[string]int{"points_earned": -5}); w.Code != 400 {
		t.Errorf("negative points: status %d, want 400", w.Code)
	}
}

func TestSessionValuesAreFixed(t *testing.T) {
	s, _ := setupServer(t, Options{})

	tests := []struct {
		name string
		body map[string]int
		want int
	}{
		{"restated standard values", map[string]int{"duration_minutes": 25, "points_earned": 10}, 201},
		{"longer session", map[string]int{"duration_minutes": 90}, 400},
		{"inflated reward", map[string]int{"points_earned": 1000}, 400},
		{"both overridden", map[string]int{"duration_minutes": 90, "points_earned": 1000}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := request(t, s, "POST", "/api/sessions", "u1", tt.body); w.Code != tt.want {
				t.Errorf("status %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	w := request(t, s, "GET", "/api/sessions", "u1", nil)
	for _, sess := range decode[[]focus.Session](t, w) {
		if sess.DurationMinutes != focus.SessionMinutes || sess.PointsEarned != focus.SessionPoints {
			t.Errorf("stored session %+v", sess)
		}
	}
}

func TestPoints(t *testing.T) {
	s, _ := setupServer(t, Options{})

	w := request(t, s, "GET", "/api/points", "u1", nil)
	if got := decode[map[string]int](t, w); got["points"] != 0 {
		t.Errorf("new user points = %d", got["points"])
	}

	for i := 1; i <= 3; i++ {
		w = request(t, s, "POST", "/api/points/increment", "u1", map[string]int{"points": 10})
		if got := decode[map[string]int](t, w); got["points"] != i*10 {
			t.Errorf("after %d increments: %d", i, got["points"])
		}
	}

	for _, n := range []int{0, -10} {
		if w := request(t, s, "POST", "/api/points/increment", "u1", map[string]int{"points": n}); w.Code != 400 {
			t.Errorf("points=%d: status %d, want 400", n, w.Code)
		}
	}
}

func TestStatus(t *testing.T) {
	s, _ := setupServer(t, Options{})
	a := createTask(t, s, "u1", "A")
	createTask(t, s, "u1", "B")
	request(t, s, "PATCH", "/api/tasks/"+a.ID, "u1", map[string]bool{"completed": true})
	request(t, s, "POST", "/api/sessions", "u1", nil)
	request(t, s, "POST", "/api/points/increment", "u1", map[string]int{"points": 10})

	w := request(t, s, "GET", "/api/status", "u1", nil)
	got := decode[map[string]any](t, w)
	want := map[string]float64{"tasks": 2, "completed_tasks": 1, "sessions": 1, "points": 10}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

type brokenCounts struct{ task.Store }

func (brokenCounts) Count(context.Context, string) (int, error) {
	return 0, errors.New("disk I/O error")
}

func TestStatusCountFailure(t *testing.T) {
	stores, err := db.Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(stores.Close)
	s := New(brokenCounts{stores.Tasks}, stores.Sessions, stores.Users, nil, Options{
		Log:            quietLogger(),
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	})

	w := request(t, s, "GET", "/api/status", "u1", nil)
	if w.Code != 500 {
		t.Errorf("status %d, want 500", w.Code)
	}
}

func TestQuote(t *testing.T) {
	s, q := setupServer(t, Options{})
	w := request(t, s, "GET", "/api/quote", "u1", nil)
	if got := decode[map[string]string](t, w); got["content"] != "Stay hungry." {
		t.Errorf("content = %q", got["content"])
	}

	q.err = errors.New("upstream down")
	if w := request(t, s, "GET", "/api/quote", "u1", nil); w.Code != 502 {
		t.Errorf("status %d, want 502", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := setupServer(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 2})
	for i := 0; i < 2; i++ {
		if w := request(t, s, "GET", "/api/points", "u1", nil); w.Code != 200 {
			t.Fatalf("request %d: status %d", i, w.Code)
		}
	}
	if w := request(t, s, "GET", "/api/points", "u1", nil); w.Code != 429 {
		t.Fatalf("status %d, want 429", w.Code)
	}
	// Buckets are per user.
	if w := request(t, s, "GET", "/api/points", "u2", nil); w.Code != 200 {
		t.Fatalf("other user: status %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _ := setupServer(t, Options{})
	w := request(t, s, "OPTIONS", "/api/tasks", "", nil)
	if w.Code != 204 {
		t.Fatalf("status %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Errorf("allow methods = %q", got)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != 500 {
		t.Fatalf("status %d, want 500", w.Code)
	}
}

func TestServerOverHTTP(t *testing.T) {
	s, _ := setupServer(t, Options{})
	srv := httptest.NewServer(s)
	defer srv.Close()

	req, _ := http.NewRequest("POST", srv.URL+"/api/tasks", strings.NewReader(`{"title":"Write report","priority":"high"}`))
	req.Header.Set("X-User-ID", "u1")
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 201 {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	var got task.Task
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Title != "Write report" || got.Priority != task.High {
		t.Errorf("unexpected task: %+v", got)
	}
}
