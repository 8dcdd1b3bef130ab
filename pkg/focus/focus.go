package focus

import (
	"context"
	"errors"
	"time"
)

// A completed pomodoro is always worth the same.
const (
	SessionMinutes = 25
	SessionPoints  = 10
)

// Session is the record of one completed focus interval. Sessions are
// never updated after insert.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	DurationMinutes int       `json:"duration_minutes"`
	PointsEarned    int       `json:"points_earned"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSession returns an unsaved session with the standard duration and reward.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, DurationMinutes: SessionMinutes, PointsEarned: SessionPoints}
}

func validate(s *Session) error {
	if s.UserID == "" {
		return errors.New("session owner is required")
	}
	if s.DurationMinutes <= 0 {
		return errors.New("duration_minutes must be positive")
	}
	if s.PointsEarned < 0 {
		return errors.New("points_earned must not be negative")
	}
	return nil
}

// Store is the contract for focus session persistence.
type Store interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	// List returns the user's most recent sessions, newest first.
	List(ctx context.Context, userID string, limit int) ([]Session, error)
	Count(ctx context.Context, userID string) (int, error)
	EnsureTable(ctx context.Context) error
}
