package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"focusforge/pkg/focus"
)

const maxSessionLimit = 100

type createSessionRequest struct {
	DurationMinutes int `json:"duration_minutes"`
	PointsEarned    int `json:"points_earned"`
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit < 1 {
		limit = 20
	}
	if limit > maxSessionLimit {
		limit = maxSessionLimit
	}
	sessions, err := s.sessions.List(r.Context(), UserID(r.Context()), limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, sessions)
}

// handleSessionCreate records a completed session. Every session is the
// standard 25 minutes and 10 points; a body may restate those values but
// not change them.
func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.DurationMinutes != 0 && req.DurationMinutes != focus.SessionMinutes {
		writeError(w, 400, fmt.Sprintf("duration_minutes is fixed at %d", focus.SessionMinutes))
		return
	}
	if req.PointsEarned != 0 && req.PointsEarned != focus.SessionPoints {
		writeError(w, 400, fmt.Sprintf("points_earned is fixed at %d", focus.SessionPoints))
		return
	}

	sess := focus.NewSession(UserID(r.Context()))
	result, err := s.sessions.Create(r.Context(), sess)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 201, result)
}

func (s *Server) handleSessionCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.sessions.Count(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]int{"count": n})
}
