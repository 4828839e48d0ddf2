package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"bidprep/metrics"
	"bidprep/services"
)

type contextKey string

const ProjectKey contextKey = "project"

// GetProject extracts the project loaded by ProjectScope from the request
// context.
func GetProject(r *http.Request) *core.Record {
	if val, ok := r.Context().Value(ProjectKey).(*core.Record); ok {
		return val
	}
	return nil
}

// ProjectScope loads the project named by the {projectId} path value and
// stores it in the request context. Unknown projects end the request with a
// 404 before any handler runs.
func ProjectScope(app *pocketbase.PocketBase) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projectID := e.Request.PathValue("projectId")
		rec, err := app.FindRecordById("projects", projectID)
		if err != nil {
			return respondError(e, "project_scope", services.LookupErr(err, "project", projectID))
		}

		ctx := context.WithValue(e.Request.Context(), ProjectKey, rec)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// RequestMetrics counts API requests by route pattern and response status.
func RequestMetrics() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		err := e.Next()

		status := e.Status()
		if status == 0 {
			status = http.StatusOK
			if err != nil {
				status = http.StatusInternalServerError
			}
		}
		route := e.Request.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.APIRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		return err
	}
}

// loadProject returns the scoped project, loading it when the handler runs
// outside ProjectScope.
func loadProject(app *pocketbase.PocketBase, e *core.RequestEvent) (*core.Record, error) {
	if rec := GetProject(e.Request); rec != nil {
		return rec, nil
	}
	projectID := e.Request.PathValue("projectId")
	rec, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return nil, services.LookupErr(err, "project", projectID)
	}
	return rec, nil
}
