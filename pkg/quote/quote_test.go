package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRandomFormats(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"quotable", `{"_id":"x","content":"Stay hungry.","author":"SJ"}`, "Stay hungry.", false},
		{"text field", `{"text":"Keep going."}`, "Keep going.", false},
		{"zenquotes array", `[{"q":"Act now.","a":"anon"}]`, "Act now.", false},
		{"empty array", `[]`, "", true},
		{"no text", `{"author":"nobody"}`, "", true},
		{"not json", `<html>`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, time.Second).Random(context.Background())
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRandomStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).Random(context.Background()); err == nil {
		t.Fatal("expected error for 429")
	}
}

func TestEmptyArrayIsErrEmpty(t *testing.T) {
	if _, err := parse([]byte(` []`)); !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}
