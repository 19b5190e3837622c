// Package api provides the HTTP server for the planner. It is the
// presentation boundary: every handler maps a request onto one planner
// operation and renders the result as JSON.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskplanner/planner/internal/app/planner"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/health"
	"github.com/taskplanner/planner/internal/timeutil"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the planner HTTP API server.
type Server struct {
	planner        *planner.Planner
	health         *health.Checker
	metricsEnabled bool
	origins        []string
	loc            *time.Location
}

// NewServer creates a new API server.
func NewServer(p *planner.Planner) *Server {
	return &Server{planner: p, loc: time.Local}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth reports checker results on /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetAllowedOrigins restricts CORS to the given origins. Empty allows all.
func (s *Server) SetAllowedOrigins(origins []string) { s.origins = origins }

// SetLocation sets the zone "HH:MM" inputs are read in.
func (s *Server) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": Version})
		})

		r.Get("/dates", s.handleDates)
		r.Route("/dates/{date}", func(r chi.Router) {
			r.Get("/schedule", s.handleSchedule)
			r.Put("/anchor", s.handleSetAnchor)
			r.Delete("/anchor", s.handleClearAnchor)
			r.Post("/reset", s.handleReset)
			r.Post("/reorder", s.handleReorder)
			r.Get("/calendar.ics", s.handleCalendar)
		})

		r.Post("/tasks", s.handleCreateTask)
		r.Route("/tasks/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTask)
			r.Patch("/", s.handleUpdateTask)
			r.Delete("/", s.handleDeleteTask)
			r.Post("/start", s.handleStart)
			r.Post("/pause", s.handlePause)
			r.Post("/complete", s.handleComplete)
		})

		r.Get("/active", s.handleActive)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// dateParam reads {date}; "today" means the planner's current date.
func (s *Server) dateParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "date")
	if raw == "today" {
		return s.planner.Today(), nil
	}
	return timeutil.ParseDate(raw)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errorType(status),
		},
	})
}

// writeDomainError maps planner errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTaskCompleted),
		errors.Is(err, domain.ErrTaskNotInProgress),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "error"
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// corsMiddleware adds CORS headers for browser front ends.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.origins) > 0 {
			origin = ""
			for _, o := range s.origins {
				if o == r.Header.Get("Origin") {
					origin = o
					break
				}
			}
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
