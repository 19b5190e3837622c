package api

import (
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/taskplanner/planner/internal/infra/ics"
	"github.com/taskplanner/planner/internal/timeutil"
)

type dateCount struct {
	Date  string `json:"date"`
	Tasks int    `json:"tasks"`
}

// --- GET /api/dates ---

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	counts := s.planner.Dates()
	out := make([]dateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, dateCount{Date: d, Tasks: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	writeJSON(w, http.StatusOK, map[string]any{"today": s.planner.Today(), "dates": out})
}

// --- GET /api/dates/{date}/schedule ---

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.View(date))
}

// --- PUT/DELETE /api/dates/{date}/anchor ---

type anchorRequest struct {
	AnchorTime string `json:"anchorTime"` // RFC 3339 or HH:MM; empty means now
}

func (s *Server) handleSetAnchor(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req anchorRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	at, err := s.instant(date, req.AnchorTime)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := s.planner.SetAnchor(date, at)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleClearAnchor(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.planner.ClearAnchor(date); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.View(date))
}

// --- POST /api/dates/{date}/reset ---

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view, err := s.planner.Reset(date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- POST /api/dates/{date}/reorder ---

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.planner.Reorder(date, req.IDs); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.planner.View(date))
}

// --- GET /api/dates/{date}/calendar.ics ---

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	view := s.planner.View(date)
	body := ics.Export(date, view.Tasks, s.planner.Now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="plan-`+date+`.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// instant parses an RFC 3339 or "HH:MM" value on date. Empty is zero.
func (s *Server) instant(date, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseInstant(date, raw, s.loc)
}
