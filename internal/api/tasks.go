package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// taskRequest is the body of POST /api/tasks. Times accept RFC 3339 or
// "HH:MM" on the task's date; an empty date means today.
type taskRequest struct {
	Date              string `json:"date"`
	Name              string `json:"name"`
	EstimatedDuration int    `json:"estimatedDuration"`
	Priority          string `json:"priority"`
	IsFixed           bool   `json:"isFixed"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
}

func (s *Server) draft(req taskRequest) (domain.TaskDraft, error) {
	date := req.Date
	if date == "" || date == "today" {
		date = s.planner.Today()
	}
	prio, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return domain.TaskDraft{}, err
	}
	d := domain.TaskDraft{
		Date:              date,
		Name:              req.Name,
		EstimatedDuration: req.EstimatedDuration,
		Priority:          prio,
		IsFixed:           req.IsFixed,
	}
	if d.StartTime, err = s.instant(date, req.StartTime); err != nil {
		return domain.TaskDraft{}, err
	}
	if d.EndTime, err = s.instant(date, req.EndTime); err != nil {
		return domain.TaskDraft{}, err
	}
	return d, nil
}

// --- POST /api/tasks ---

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := s.draft(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	t, err := s.planner.Add(d)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// --- GET /api/tasks/{id} ---

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.planner.Task(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- PATCH /api/tasks/{id} ---

// patchRequest mirrors domain.TaskPatch with string times.
type patchRequest struct {
	Date              *string `json:"date"`
	Name              *string `json:"name"`
	EstimatedDuration *int    `json:"estimatedDuration"`
	Priority          *string `json:"priority"`
	IsFixed           *bool   `json:"isFixed"`
	StartTime         *string `json:"startTime"`
	EndTime           *string `json:"endTime"`
	Status            *string `json:"status"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req patchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cur, err := s.planner.Task(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	patch := domain.TaskPatch{
		Date:              req.Date,
		Name:              req.Name,
		EstimatedDuration: req.EstimatedDuration,
		IsFixed:           req.IsFixed,
	}
	if req.Priority != nil {
		prio, err := domain.ParsePriority(*req.Priority)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		patch.Priority = &prio
	}
	if req.Status != nil {
		st := domain.Status(*req.Status)
		patch.Status = &st
	}

	date := cur.Date
	if req.Date != nil {
		date = *req.Date
	}
	if patch.StartTime, err = s.optionalInstant(date, req.StartTime); err != nil {
		writeDomainError(w, err)
		return
	}
	if patch.EndTime, err = s.optionalInstant(date, req.EndTime); err != nil {
		writeDomainError(w, err)
		return
	}

	t, err := s.planner.Update(id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) optionalInstant(date string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := s.instant(date, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- DELETE /api/tasks/{id} ---

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.Delete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- POST /api/tasks/{id}/{start,pause,complete} ---

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.planner.Start)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.planner.Pause)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	s.lifecycle(w, r, s.planner.Complete)
}

func (s *Server) lifecycle(w http.ResponseWriter, r *http.Request, op func(string) (domain.Task, error)) {
	t, err := op(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// --- GET /api/active ---

type activeResponse struct {
	Active  bool         `json:"active"`
	Task    *domain.Task `json:"task,omitempty"`
	Since   time.Time    `json:"since,omitzero"`
	Elapsed string       `json:"elapsed,omitempty"`
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	act, ok := s.planner.Active()
	if !ok {
		writeJSON(w, http.StatusOK, activeResponse{})
		return
	}
	t, err := s.planner.Task(act.TaskID)
	if err != nil {
		writeJSON(w, http.StatusOK, activeResponse{})
		return
	}
	writeJSON(w, http.StatusOK, activeResponse{
		Active:  true,
		Task:    &t,
		Since:   act.StartedAt,
		Elapsed: timeutil.FormatElapsed(act.StartedAt, s.planner.Now()),
	})
}
