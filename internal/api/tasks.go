package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"focusforge/pkg/task"
)

type createTaskRequest struct {
	Title    string        `json:"title"`
	Priority task.Priority `json:"priority"`
	Position *int          `json:"position"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.List(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.tasks.Get(r.Context(), UserID(r.Context()), id)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := UserID(ctx)

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	t := task.Task{UserID: uid, Title: req.Title, Priority: req.Priority}
	if req.Position != nil {
		t.Position = *req.Position
	} else {
		max, err := s.tasks.MaxPosition(ctx, uid)
		if err != nil {
			writeError(w, 500, err.Error())
			return
		}
		t.Position = max + 1
	}

	result, err := s.tasks.Create(ctx, &t)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, 201, result)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p task.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if p.Empty() {
		writeError(w, 400, "no fields to update")
		return
	}
	t, err := s.tasks.Update(r.Context(), UserID(r.Context()), id, p)
	if err != nil {
		writeTaskError(w, err)
		return
	}
	writeJSON(w, 200, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.tasks.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		writeTaskError(w, err)
		return
	}
	w.WriteHeader(204)
}

// handleTaskReorder persists a full ordering: ids[i] gets position i. ids
// must name every task the caller owns, each once.
func (s *Server) handleTaskReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := UserID(ctx)

	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid JSON: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, 400, "ids is required")
		return
	}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if seen[id] {
			writeError(w, 400, "duplicate id "+id)
			return
		}
		seen[id] = true
	}

	owned, err := s.tasks.List(ctx, uid)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	ownedIDs := make(map[string]bool, len(owned))
	for _, t := range owned {
		ownedIDs[t.ID] = true
	}
	for _, id := range req.IDs {
		if !ownedIDs[id] {
			writeTaskError(w, fmt.Errorf("reorder task %s: %w", id, task.ErrNotFound))
			return
		}
	}
	// A partial ordering would leave the omitted tasks on colliding positions.
	if len(req.IDs) != len(owned) {
		writeError(w, 400, fmt.Sprintf("ids must list all %d tasks, got %d", len(owned), len(req.IDs)))
		return
	}

	if err := s.tasks.Reposition(ctx, uid, req.IDs); err != nil {
		writeTaskError(w, err)
		return
	}
	tasks, err := s.tasks.List(ctx, uid)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, 200, tasks)
}

// writeTaskError maps store errors onto status codes.
func writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, task.ErrNotFound):
		writeError(w, 404, err.Error())
	case errors.Is(err, task.ErrEmptyTitle),
		errors.Is(err, task.ErrInvalidPriority),
		errors.Is(err, task.ErrInvalidPosition):
		writeError(w, 400, err.Error())
	default:
		writeError(w, 500, err.Error())
	}
}
