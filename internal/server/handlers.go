package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/tgienger/tasktrack/internal/logging"
	"github.com/tgienger/tasktrack/internal/models"
	"github.com/tgienger/tasktrack/internal/query"
	"github.com/tgienger/tasktrack/internal/stats"
)

type ctxKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Task search parameters that are not filters
var reservedTaskParams = map[string]bool{"project": true, "search": true, "sort": true, "dir": true}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var projectID *int64
	if raw := r.URL.Query().Get("projectId"); raw != "" {
		id, err := parsePositive("projectId", raw)
		if err != nil {
			s.fail(w, r, "DASHBOARD_FAILED", err)
			return
		}
		projectID = &id
	}

	d, err := guarded(s, "load dashboard", func() (stats.Dashboard, error) {
		return s.dashboard.Dashboard(r.Context(), projectID)
	})
	if err != nil {
		s.fail(w, r, "DASHBOARD_FAILED", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	p := query.Params{
		Search:        values.Get("search"),
		SortField:     values.Get("sort"),
		SortDirection: values.Get("dir"),
		Filters:       map[string]string{},
	}
	if raw := values.Get("project"); raw != "" {
		id, err := parsePositive("project", raw)
		if err != nil {
			s.fail(w, r, "TASK_QUERY_FAILED", err)
			return
		}
		p.ProjectID = &id
	}
	for key, vals := range values {
		if reservedTaskParams[key] {
			continue
		}
		if len(vals) != 1 {
			s.fail(w, r, "TASK_QUERY_FAILED", &models.ValidationError{Field: key, Reason: "filter given more than once"})
			return
		}
		p.Filters[key] = vals[0]
	}

	tasks, err := guarded(s, "query tasks", func() ([]models.TaskView, error) {
		return s.engine.Tasks(r.Context(), p)
	})
	if err != nil {
		s.fail(w, r, "TASK_QUERY_FAILED", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	projects, err := guarded(s, "list projects", func() ([]models.ProjectSummary, error) {
		return s.engine.Projects(r.Context(), query.ProjectParams{
			Search:        values.Get("search"),
			SortField:     values.Get("sort"),
			SortDirection: values.Get("dir"),
		})
	})
	if err != nil {
		s.fail(w, r, "PROJECT_QUERY_FAILED", err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.PingContext(r.Context()); err != nil {
		s.fail(w, r, "HEALTH_CHECK_FAILED", &models.StoreError{Op: "ping", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail logs err and writes it with the matching status code
func (s *Server) fail(w http.ResponseWriter, r *http.Request, event string, err error) {
	status := statusFor(err)
	entry := logging.Event(event).WithField("request_id", requestID(r.Context())).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case models.IsValidation(err):
		return http.StatusBadRequest
	case models.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case models.IsStore(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Event("RESPONSE_ENCODE_FAILED").WithError(err).Error("failed to write response")
	}
}

func parsePositive(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: field, Reason: "expected a positive id, got " + strconv.Quote(raw)}
	}
	return id, nil
}
