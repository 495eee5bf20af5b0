// Package tasks is the fixed-schema path over the reserved Tasks database.
// Its schema is hardcoded here on purpose: the database id is excluded from
// the dynamic registry and this model is the only code that touches it.
package tasks

import (
	"context"
	"strings"

	"github.com/notiongate/notiongate/internal/batch"
	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/rows"
	"github.com/notiongate/notiongate/internal/schema"
	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

// Notion property names of the fixed Tasks schema
const (
	propName       = "Name"
	propDone       = "Done"
	propDueDate    = "Due Date"
	propTimeOfDay  = "Time of Day"
	propPriority   = "Priority"
	propNotes      = "Notes"
	propOccurrence = "Occurrence"
)

// aliases maps API field names to Notion property names
var aliases = map[string]string{
	"title":      propName,
	"name":       propName,
	"completed":  propDone,
	"done":       propDone,
	"duedate":    propDueDate,
	"tod":        propTimeOfDay,
	"timeofday":  propTimeOfDay,
	"priority":   propPriority,
	"notes":      propNotes,
	"occurrence": propOccurrence,
}

// columns is the fixed canonical schema of the Tasks database
var columns = map[string]schema.Column{
	propName:       {Type: schema.TypeTitle},
	propDone:       {Type: schema.TypeCheckbox},
	propDueDate:    {Type: schema.TypeDate},
	propTimeOfDay:  {Type: schema.TypeSelect, Options: schema.OptionList{"start", "any", "end"}},
	propPriority:   {Type: schema.TypeSelect, Options: schema.OptionList{"!", "!!", "!!!"}},
	propNotes:      {Type: schema.TypeRichText},
	propOccurrence: {Type: schema.TypeSelect, Options: schema.OptionList{"daily", "weekly", "recurring", "future", "once"}},
}

var timeOfDayValues = map[string]bool{"start": true, "any": true, "end": true}

var occurrenceValues = map[string]bool{
	"daily": true, "weekly": true, "recurring": true, "future": true, "once": true,
}

// priorityMap accepts symbols, words, and digits for the Priority select
var priorityMap = map[string]string{
	"!": "!", "!!": "!!", "!!!": "!!!",
	"low": "!", "medium": "!!", "high": "!!!",
	"1": "!", "2": "!!", "3": "!!!",
}

// Task is one row of the Tasks database in API form
type Task struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Completed      bool        `json:"completed"`
	DueDate        interface{} `json:"dueDate"`
	TimeOfDay      interface{} `json:"timeOfDay"`
	Priority       interface{} `json:"priority"`
	Notes          string      `json:"notes"`
	Occurrence     interface{} `json:"occurrence"`
	CreatedTime    string      `json:"createdTime"`
	LastEditedTime string      `json:"lastEditedTime"`
}

// Query filters a task list request
type Query struct {
	Completed   *bool
	Occurrence  string
	TimeOfDay   string
	Priority    string
	DueAfter    string
	DueBefore   string
	PageSize    int
	StartCursor string
}

// ListResult is one page of tasks
type ListResult struct {
	Tasks      []*Task `json:"tasks"`
	HasMore    bool    `json:"hasMore"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

// Model operates on the reserved Tasks database
type Model struct {
	databaseID string
	client     *notion.Client
	logger     *logger.Logger
	batchOpts  batch.Options
}

// NewModel binds the model to the reserved database id
func NewModel(client *notion.Client, log *logger.Logger, databaseID string, batchOpts batch.Options) *Model {
	return &Model{
		databaseID: databaseID,
		client:     client,
		logger:     log,
		batchOpts:  batchOpts,
	}
}

// formatFromWire flattens an upstream page into a task
func (m *Model) formatFromWire(page *notion.Page) *Task {
	task := &Task{
		ID:             page.ID,
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
	}

	for name, prop := range page.Properties {
		value, ok := schema.FromWireValue(prop)
		if !ok {
			continue
		}
		switch name {
		case propName:
			task.Title, _ = value.(string)
		case propDone:
			task.Completed, _ = value.(bool)
		case propDueDate:
			task.DueDate = value
		case propTimeOfDay:
			task.TimeOfDay = value
		case propPriority:
			task.Priority = value
		case propNotes:
			task.Notes, _ = value.(string)
		case propOccurrence:
			task.Occurrence = value
		}
	}
	return task
}

// formatForWire coerces API input into upstream properties. Unknown fields
// are dropped; select values are validated or normalized where the fixed
// schema constrains them.
func (m *Model) formatForWire(data map[string]interface{}) map[string]map[string]interface{} {
	properties := make(map[string]map[string]interface{})

	for key, raw := range data {
		name, ok := aliases[strings.ToLower(key)]
		if !ok {
			m.logger.Debugf("Ignoring unknown task field %q", key)
			continue
		}

		switch name {
		case propTimeOfDay:
			if s, isString := raw.(string); isString {
				lowered := strings.ToLower(s)
				if !timeOfDayValues[lowered] {
					continue
				}
				raw = lowered
			}
		case propOccurrence:
			if s, isString := raw.(string); isString {
				lowered := strings.ToLower(s)
				if !occurrenceValues[lowered] {
					continue
				}
				raw = lowered
			}
		case propPriority:
			if s, isString := raw.(string); isString && s != "" {
				if mapped, known := priorityMap[strings.ToLower(s)]; known {
					raw = mapped
				}
			}
		}

		wire, writable := schema.ToWireValue(columns[name].Type, raw)
		if !writable {
			continue
		}
		properties[name] = wire
	}

	return properties
}

// List queries tasks with high-level filters
func (m *Model) List(ctx context.Context, q Query) (*ListResult, error) {
	var conditions []map[string]interface{}

	if q.Completed != nil {
		conditions = append(conditions, map[string]interface{}{
			"property": propDone,
			"checkbox": map[string]interface{}{"equals": *q.Completed},
		})
	}
	for prop, value := range map[string]string{
		propOccurrence: q.Occurrence,
		propTimeOfDay:  q.TimeOfDay,
		propPriority:   q.Priority,
	} {
		if value != "" {
			conditions = append(conditions, map[string]interface{}{
				"property": prop,
				"select":   map[string]interface{}{"equals": value},
			})
		}
	}
	datePred := map[string]interface{}{}
	if q.DueAfter != "" {
		datePred["after"] = q.DueAfter
	}
	if q.DueBefore != "" {
		datePred["before"] = q.DueBefore
	}
	if len(datePred) > 0 {
		conditions = append(conditions, map[string]interface{}{
			"property": propDueDate,
			"date":     datePred,
		})
	}

	var filter interface{}
	if len(conditions) > 0 {
		filter = map[string]interface{}{"and": conditions}
	}

	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > rows.DefaultPageSize {
		pageSize = rows.DefaultPageSize
	}

	result, err := m.client.QueryDatabase(ctx, m.databaseID, &notion.QueryRequest{
		Filter: filter,
		Sorts: []map[string]interface{}{
			{"timestamp": "created_time", "direction": "descending"},
		},
		PageSize:    pageSize,
		StartCursor: q.StartCursor,
	})
	if err != nil {
		return nil, err
	}

	tasks := make([]*Task, 0, len(result.Results))
	for i := range result.Results {
		tasks = append(tasks, m.formatFromWire(&result.Results[i]))
	}
	return &ListResult{
		Tasks:      tasks,
		HasMore:    result.HasMore,
		NextCursor: result.NextCursor,
	}, nil
}

// Get fetches one task by id
func (m *Model) Get(ctx context.Context, id string) (*Task, error) {
	page, err := m.client.RetrievePage(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// Create inserts a task; the title is required
func (m *Model) Create(ctx context.Context, data map[string]interface{}) (*Task, error) {
	properties := m.formatForWire(data)

	runs, _ := properties[propName]["title"].([]interface{})
	if len(runs) == 0 {
		return nil, apperrors.Validationf("task title is required")
	}

	page, err := m.client.CreatePage(ctx, m.databaseID, properties)
	if err != nil {
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// Update patches a task
func (m *Model) Update(ctx context.Context, id string, data map[string]interface{}) (*Task, error) {
	properties := m.formatForWire(data)

	page, err := m.client.UpdatePage(ctx, id, properties)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// SetCompleted flips the Done checkbox
func (m *Model) SetCompleted(ctx context.Context, id string, completed bool) (*Task, error) {
	return m.Update(ctx, id, map[string]interface{}{"completed": completed})
}

// Archive soft-deletes a task; idempotent like every archive in this gateway
func (m *Model) Archive(ctx context.Context, id string) (*rows.ArchiveResult, error) {
	_, err := m.client.ArchivePage(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, err
	}
	return &rows.ArchiveResult{ID: id, Archived: true}, nil
}

// CreateBatch inserts many tasks through the batch executor
func (m *Model) CreateBatch(ctx context.Context, items []map[string]interface{}) *rows.BatchSummary {
	result := batch.Run(ctx, items, func(ctx context.Context, data map[string]interface{}) (*Task, error) {
		return m.Create(ctx, data)
	}, m.batchOpts)
	return rows.Summarize(result, "created")
}

// UpdateBatch patches many tasks through the batch executor
func (m *Model) UpdateBatch(ctx context.Context, items []rows.UpdateItem) *rows.BatchSummary {
	result := batch.Run(ctx, items, func(ctx context.Context, item rows.UpdateItem) (*Task, error) {
		return m.Update(ctx, item.ID, item.Values)
	}, m.batchOpts)
	return rows.Summarize(result, "updated")
}

// ArchiveBatch archives many tasks through the batch executor
func (m *Model) ArchiveBatch(ctx context.Context, ids []string) *rows.BatchSummary {
	result := batch.Run(ctx, ids, func(ctx context.Context, id string) (*rows.ArchiveResult, error) {
		return m.Archive(ctx, id)
	}, m.batchOpts)
	return rows.Summarize(result, "archived")
}
