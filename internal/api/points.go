package api

import (
	"encoding/json"
	"net/http"
)

type pointsRequest struct {
	Points int `json:"points"`
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	n, err := s.users.Points(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]int{"points": n})
}

func (s *Server) handlePointsIncrement(w http.ResponseWriter, r *http.Request) {
	var req pointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.Points <= 0 {
		writeError(w, 400, "points must be positive")
		return
	}
	n, err := s.users.IncrementPoints(r.Context(), UserID(r.Context()), req.Points)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, map[string]int{"points": n})
}

// handleQuote proxies the quote service so browser clients avoid CORS.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, 503, "quotes are not configured")
		return
	}
	q, err := s.quotes.Random(r.Context())
	if err != nil {
		s.log.Warn("quote fetch failed", "error", err)
		writeError(w, 502, "quote service unavailable")
		return
	}
	writeJSON(w, 200, map[string]string{"content": q})
}
