package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/notiongate/notiongate/internal/registry"
	"github.com/notiongate/notiongate/pkg/apperrors"
)

// DatabaseHandlers contains the dynamic database endpoint handlers
type DatabaseHandlers struct {
	engine *Engine
}

// NewDatabaseHandlers creates a new instance of DatabaseHandlers
func NewDatabaseHandlers(engine *Engine) *DatabaseHandlers {
	return &DatabaseHandlers{
		engine: engine,
	}
}

// CreateDatabase handles POST /api/dynamic/databases
func (dh *DatabaseHandlers) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	var req CreateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Name == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Database name is required", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	created, err := dh.engine.registry.Create(ctx, registry.CreateOptions{
		Name:    req.Name,
		Columns: req.Properties,
		Parent:  req.Parent,
	})
	if err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to create database")
		return
	}

	dh.engine.logger.Infof("Created database %s (%s)", created.Name, created.ID)
	writeJSONResponse(w, http.StatusCreated, DatabaseResponse{Success: true, Database: created})
}

// ListDatabases handles GET /api/dynamic/databases
func (dh *DatabaseHandlers) ListDatabases(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	writeJSONResponse(w, http.StatusOK, ListDatabasesResponse{
		Success:   true,
		Databases: dh.engine.registry.All(),
	})
}

// ShowDatabase handles GET /api/dynamic/databases/{dbId}
func (dh *DatabaseHandlers) ShowDatabase(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	dbID := mux.Vars(r)["dbId"]
	s, ok := dh.engine.registry.Get(dbID)
	if !ok {
		writeServiceError(w, apperrors.NotFound("database", dbID), "Database not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, DatabaseResponse{Success: true, Database: s})
}

// ModifyDatabase handles PATCH /api/dynamic/databases/{dbId}
func (dh *DatabaseHandlers) ModifyDatabase(w http.ResponseWriter, r *http.Request) {
	dh.engine.TrackOperation()
	defer dh.engine.UntrackOperation()

	dbID := mux.Vars(r)["dbId"]

	var req UpdateDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Name == "" && len(req.Properties) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "Nothing to update", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	updated, err := dh.engine.registry.Update(ctx, dbID, registry.UpdatePatch{
		Name:    req.Name,
		Columns: req.Properties,
	})
	if err != nil {
		dh.engine.TrackError()
		writeServiceError(w, err, "Failed to update database")
		return
	}

	writeJSONResponse(w, http.StatusOK, DatabaseResponse{Success: true, Database: updated})
}
