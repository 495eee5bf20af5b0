package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/notiongate/notiongate/internal/tasks"
)

// TaskHandlers contains the fixed-schema task endpoint handlers
type TaskHandlers struct {
	engine *Engine
}

// NewTaskHandlers creates a new instance of TaskHandlers
func NewTaskHandlers(engine *Engine) *TaskHandlers {
	return &TaskHandlers{
		engine: engine,
	}
}

// model guards every task route against a missing tasks configuration
func (th *TaskHandlers) model(w http.ResponseWriter) (*tasks.Model, bool) {
	if th.engine.tasks == nil {
		writeErrorResponse(w, http.StatusNotFound, "Tasks database is not configured", "")
		return nil, false
	}
	return th.engine.tasks, true
}

// parseTaskQuery turns query parameters into a task list query
func parseTaskQuery(r *http.Request) tasks.Query {
	params := r.URL.Query()

	q := tasks.Query{
		Occurrence:  params.Get("occurrence"),
		TimeOfDay:   params.Get("timeOfDay"),
		Priority:    params.Get("priority"),
		DueAfter:    params.Get("dueAfter"),
		DueBefore:   params.Get("dueBefore"),
		StartCursor: params.Get("startCursor"),
	}
	if q.TimeOfDay == "" {
		q.TimeOfDay = params.Get("tod")
	}
	if v := params.Get("completed"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q.Completed = &b
		}
	}
	if v := params.Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.PageSize = n
		}
	}
	return q
}

// ListTasks handles GET /api/tasks
func (th *TaskHandlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := model.List(ctx, parseTaskQuery(r))
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to list tasks")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"tasks":      result.Tasks,
		"hasMore":    result.HasMore,
		"nextCursor": result.NextCursor,
	})
}

// ShowTask handles GET /api/tasks/{taskId}
func (th *TaskHandlers) ShowTask(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	task, err := model.Get(ctx, mux.Vars(r)["taskId"])
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to fetch task")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

// CreateTask handles POST /api/tasks
func (th *TaskHandlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	task, err := model.Create(ctx, data)
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to create task")
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]interface{}{"success": true, "task": task})
}

// ModifyTask handles PATCH /api/tasks/{taskId}
func (th *TaskHandlers) ModifyTask(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	task, err := model.Update(ctx, mux.Vars(r)["taskId"], data)
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to update task")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

// CompleteTask handles POST /api/tasks/{taskId}/complete. The body may carry
// {"completed": false} to reopen; an empty body completes.
func (th *TaskHandlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	completed := true
	var body struct {
		Completed *bool `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Completed != nil {
		completed = *body.Completed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	task, err := model.SetCompleted(ctx, mux.Vars(r)["taskId"], completed)
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to update task")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{"success": true, "task": task})
}

// RemoveTask handles DELETE /api/tasks/{taskId}
func (th *TaskHandlers) RemoveTask(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	result, err := model.Archive(ctx, mux.Vars(r)["taskId"])
	if err != nil {
		th.engine.TrackError()
		writeServiceError(w, err, "Failed to archive task")
		return
	}

	writeJSONResponse(w, http.StatusOK, ArchiveResponse{Success: true, Result: result})
}

// CreateTasksBatch handles POST /api/tasks/batch
func (th *TaskHandlers) CreateTasksBatch(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
	if !ok {
		return
	}

	var req struct {
		Tasks []map[string]interface{} `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if len(req.Tasks) == 0 {
		writeErrorResponse(w, http.StatusBadRequest, "tasks must not be empty", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	summary := model.CreateBatch(ctx, req.Tasks)
	if summary.Failed > 0 {
		th.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusCreated), summary.Counted())
}

// ModifyTasksBatch handles PATCH /api/tasks/batch
func (th *TaskHandlers) ModifyTasksBatch(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	summary := model.UpdateBatch(ctx, req.Updates)
	if summary.Failed > 0 {
		th.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusOK), summary.Counted())
}

// RemoveTasksBatch handles DELETE /api/tasks/batch
func (th *TaskHandlers) RemoveTasksBatch(w http.ResponseWriter, r *http.Request) {
	th.engine.TrackOperation()
	defer th.engine.UntrackOperation()

	model, ok := th.model(w)
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
		th.engine.TrackError()
	}
	writeJSONResponse(w, batchStatus(summary.Failed, http.StatusOK), summary.Counted())
}
