package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notiongate/notiongate/internal/discovery"
)

// DiscoveryHandlers contains the workspace introspection endpoint handlers
type DiscoveryHandlers struct {
	engine *Engine
}

// NewDiscoveryHandlers creates a new instance of DiscoveryHandlers
func NewDiscoveryHandlers(engine *Engine) *DiscoveryHandlers {
	return &DiscoveryHandlers{
		engine: engine,
	}
}

// ListWorkspaceDatabases handles GET /api/discovery/databases
func (dh *DiscoveryHandlers) ListWorkspaceDatabases(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	databases, err := dh.engine.discovery.ListAll(ctx)
	if err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to list workspace databases")
		return
	}
	if databases == nil {
		databases = []discovery.DatabaseInfo{}
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"databases": databases,
		"count":     len(databases),
	})
}

// ShowWorkspaceSchema handles GET /api/discovery/databases/{dbId}/schema
func (dh *DiscoveryHandlers) ShowWorkspaceSchema(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s, err := dh.engine.discovery.FetchSchema(ctx, mux.Vars(r)["dbId"])
	if err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to fetch database schema")
		return
	}

	writeJSONResponse(w, http.StatusOK, DatabaseResponse{Success: true, Database: s})
}

// RegisterWorkspaceDatabase handles POST /api/discovery/databases/{dbId}/register.
// It imports a live database into the registry so the dynamic entry routes
// can serve it.
func (dh *DiscoveryHandlers) RegisterWorkspaceDatabase(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	dbID := mux.Vars(r)["dbId"]

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s, err := dh.engine.discovery.FetchSchema(ctx, dbID)
	if err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to fetch database schema")
		return
	}

	if err := dh.engine.registry.Register(s); err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to register database")
		return
	}
	if err := dh.engine.registry.Save(ctx, s); err != nil {
		dh.engine.logger.Errorf("Failed to persist registered schema %s: %v", dbID, err)
	}

	writeJSONResponse(w, http.StatusOK, DatabaseResponse{Success: true, Database: s})
}
