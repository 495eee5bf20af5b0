package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/notiongate/notiongate/internal/rows"
)

// EntryHandlers contains the row CRUD and batch endpoint handlers
type EntryHandlers struct {
	engine *Engine
}

// NewEntryHandlers creates a new instance of EntryHandlers
func NewEntryHandlers(engine *Engine) *EntryHandlers {
	return &EntryHandlers{
		engine: engine,
	}
}

// model resolves the row model for the path's database id, writing the
// error response itself on failure
func (eh *EntryHandlers) model(w http.ResponseWriter, r *http.Request) (*rows.Model, bool) {
	dbID := mux.Vars(r)["dbId"]
	model, err := eh.engine.Model(r.Context(), dbID)
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to resolve database")
		return nil, false
	}
	return model, true
}

// reserved query parameters that are not filter fields
var pagingParams = map[string]bool{
	"pageSize":      true,
	"startCursor":   true,
	"sortBy":        true,
	"sortDirection": true,
}

// parseListQuery turns query parameters into a row query. A bare parameter
// filters on equality; a bracketed one (dueDate[after]=...) nests the
// operator under the field.
func parseListQuery(r *http.Request) rows.Query {
	q := rows.Query{Filters: map[string]interface{}{}}

	for key, values := range r.URL.Query() {
		if len(values) == 0 || pagingParams[key] {
			continue
		}
		value := values[0]

		if open := strings.IndexByte(key, '['); open > 0 && strings.HasSuffix(key, "]") {
			field := key[:open]
			op := key[open+1 : len(key)-1]
			nested, _ := q.Filters[field].(map[string]interface{})
			if nested == nil {
				nested = map[string]interface{}{}
			}
			nested[op] = value
			q.Filters[field] = nested
			continue
		}

		q.Filters[key] = value
	}

	if v := r.URL.Query().Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.PageSize = n
		}
	}
	q.StartCursor = r.URL.Query().Get("startCursor")

	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		direction := r.URL.Query().Get("sortDirection")
		if direction != "ascending" && direction != "descending" {
			direction = "ascending"
		}
		q.Sorts = []map[string]interface{}{
			{"property": sortBy, "direction": direction},
		}
	}

	return q
}

// ListEntries handles GET /api/dynamic/databases/{dbId}/entries
func (eh *EntryHandlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := model.List(ctx, parseListQuery(r))
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to list entries")
		return
	}

	writeJSONResponse(w, http.StatusOK, ListEntriesResponse{
		Success:    true,
		Results:    result.Rows,
		HasMore:    result.HasMore,
		NextCursor: result.NextCursor,
	})
}

// ShowEntry handles GET /api/dynamic/databases/{dbId}/entries/{entryId}
func (eh *EntryHandlers) ShowEntry(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	entry, err := model.Get(ctx, mux.Vars(r)["entryId"])
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to fetch entry")
		return
	}

	writeJSONResponse(w, http.StatusOK, EntryResponse{Success: true, Entry: entry})
}

// CreateEntry handles POST /api/dynamic/databases/{dbId}/entries
func (eh *EntryHandlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	var values map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	entry, err := model.Create(ctx, values)
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to create entry")
		return
	}

	writeJSONResponse(w, http.StatusCreated, EntryResponse{Success: true, Entry: entry})
}

// ModifyEntry handles PATCH /api/dynamic/databases/{dbId}/entries/{entryId}
func (eh *EntryHandlers) ModifyEntry(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	var values map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	entry, err := model.Update(ctx, mux.Vars(r)["entryId"], values)
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to update entry")
		return
	}

	writeJSONResponse(w, http.StatusOK, EntryResponse{Success: true, Entry: entry})
}

// RemoveEntry handles DELETE /api/dynamic/databases/{dbId}/entries/{entryId}
func (eh *EntryHandlers) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := model.Archive(ctx, mux.Vars(r)["entryId"])
	if err != nil {
		eh.engine.TrackError()
		writeServiceError(w, err, "Failed to archive entry")
		return
	}

	writeJSONResponse(w, http.StatusOK, ArchiveResponse{Success: true, Result: result})
}

// CreateEntriesBatch handles POST /api/dynamic/databases/{dbId}/entries/batch
func (eh *EntryHandlers) CreateEntriesBatch(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	var req CreateEntriesBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Entries) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "entries must not be empty", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	summary := model.CreateBatch(ctx, req.Entries)
	if summary.Failed > 0 {
		eh.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusCreated), summary.Counted())
}

// ModifyEntriesBatch handles PATCH /api/dynamic/databases/{dbId}/entries/batch
func (eh *EntryHandlers) ModifyEntriesBatch(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	var req UpdateEntriesBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Updates) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "updates must not be empty", "")
		return
	}
	for i, item := range req.Updates {
		if item.ID == "" {
			writeErrorResponse(w, http.StatusBadRequest, "every update needs an id", "missing id at index "+strconv.Itoa(i))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	summary := model.UpdateBatch(ctx, req.Updates)
	if summary.Failed > 0 {
		eh.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusOK), summary.Counted())
}

// RemoveEntriesBatch handles DELETE /api/dynamic/databases/{dbId}/entries/batch
func (eh *EntryHandlers) RemoveEntriesBatch(w http.ResponseWriter, r *http.Request) {
	eh.engine.TrackOperation()
	defer eh.engine.UntrackOperation()

	model, ok := eh.model(w, r)
	if !ok {
		return
	}

	var req DeleteEntriesBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "ids must not be empty", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	summary := model.ArchiveBatch(ctx, req.IDs)
	if summary.Failed > 0 {
		eh.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusOK), summary.Counted())
}
