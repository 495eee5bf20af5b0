// Package rows is the per-database row façade. It composes the registry (to
// know column types) and the schema coercion layer (to translate values) and
// exposes CRUD plus batch operations against upstream storage.
package rows

import (
	"context"

	"github.com/notiongate/notiongate/internal/batch"
	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/registry"
	"github.com/notiongate/notiongate/internal/schema"
	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

// DefaultPageSize bounds list queries when the caller does not override
const DefaultPageSize = 100

// Entry is one row of a database in canonical form
type Entry struct {
	ID             string                 `json:"id"`
	CreatedTime    string                 `json:"createdTime"`
	LastEditedTime string                 `json:"lastEditedTime"`
	Values         map[string]interface{} `json:"values"`
}

// ArchiveResult confirms a (soft) deletion
type ArchiveResult struct {
	ID       string `json:"id"`
	Archived bool   `json:"archived"`
}

// ListResult is one page of rows
type ListResult struct {
	Rows       []*Entry `json:"results"`
	HasMore    bool     `json:"hasMore"`
	NextCursor string   `json:"nextCursor,omitempty"`
}

// Query is a high-level list request
type Query struct {
	Filters     map[string]interface{}
	Sorts       []map[string]interface{}
	PageSize    int
	StartCursor string
}

// Model is bound to one database id. Construction fails fast when the
// registry has no schema for the id; hydrating the registry from discovery
// on a miss is the calling layer's job, not this one's.
type Model struct {
	databaseID string
	schema     *schema.Schema
	client     *notion.Client
	logger     *logger.Logger
	batchOpts  batch.Options
}

// NewModel binds a model to a registered database
func NewModel(reg *registry.Registry, client *notion.Client, log *logger.Logger, databaseID string, batchOpts batch.Options) (*Model, error) {
	s, ok := reg.Get(databaseID)
	if !ok {
		return nil, apperrors.NotFound("database", databaseID)
	}
	return &Model{
		databaseID: databaseID,
		schema:     s,
		client:     client,
		logger:     log,
		batchOpts:  batchOpts,
	}, nil
}

// Schema exposes the bound schema
func (m *Model) Schema() *schema.Schema {
	return m.schema
}

// formatFromWire flattens an upstream page into a canonical entry
func (m *Model) formatFromWire(page *notion.Page) *Entry {
	entry := &Entry{
		ID:             page.ID,
		CreatedTime:    page.CreatedTime,
		LastEditedTime: page.LastEditedTime,
		Values:         make(map[string]interface{}, len(page.Properties)),
	}
	for name, prop := range page.Properties {
		value, ok := schema.FromWireValue(prop)
		if !ok {
			m.logger.Debugf("Unhandled property type %v for %s", prop["type"], name)
			continue
		}
		entry.Values[name] = value
	}
	return entry
}

// formatForWire coerces caller values into upstream properties. Keys absent
// from values are untouched upstream; keys present with a nil value clear
// the property. Unresolvable names pass through so upstream reports them.
func (m *Model) formatForWire(values map[string]interface{}) map[string]map[string]interface{} {
	properties := make(map[string]map[string]interface{}, len(values))

	for inputName, raw := range values {
		name := schema.ResolveColumn(m.schema.Columns, inputName)
		col, known := m.schema.Columns[name]

		if !known {
			// Unknown column; coerce as text and let upstream reject the name.
			wire, _ := schema.ToWireValue("", raw)
			properties[name] = wire
			continue
		}

		if !col.Type.Known() {
			m.logger.Warnf("Column %s has unknown type %q, writing as rich_text", name, col.Type)
		}

		wire, ok := schema.ToWireValue(col.Type, raw)
		if !ok {
			// Computed column; upstream owns the value, drop the write.
			continue
		}
		properties[name] = wire
	}

	return properties
}

// List queries rows with high-level filters, a default most-recently-created
// sort, and cursor pagination
func (m *Model) List(ctx context.Context, q Query) (*ListResult, error) {
	sorts := q.Sorts
	if len(sorts) == 0 {
		sorts = []map[string]interface{}{
			{"timestamp": "created_time", "direction": "descending"},
		}
	}

	pageSize := q.PageSize
	if pageSize <= 0 || pageSize > DefaultPageSize {
		pageSize = DefaultPageSize
	}

	result, err := m.client.QueryDatabase(ctx, m.databaseID, &notion.QueryRequest{
		Filter:      BuildFilter(m.schema, q.Filters),
		Sorts:       sorts,
		PageSize:    pageSize,
		StartCursor: q.StartCursor,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]*Entry, 0, len(result.Results))
	for i := range result.Results {
		rows = append(rows, m.formatFromWire(&result.Results[i]))
	}

	return &ListResult{
		Rows:       rows,
		HasMore:    result.HasMore,
		NextCursor: result.NextCursor,
	}, nil
}

// Get fetches one row by id
func (m *Model) Get(ctx context.Context, id string) (*Entry, error) {
	page, err := m.client.RetrievePage(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("entry", id)
		}
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// Create inserts one row. The title column must be non-empty after coercion.
func (m *Model) Create(ctx context.Context, values map[string]interface{}) (*Entry, error) {
	properties := m.formatForWire(values)

	if err := m.requireTitle(properties); err != nil {
		return nil, err
	}

	page, err := m.client.CreatePage(ctx, m.databaseID, properties)
	if err != nil {
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// requireTitle rejects a create whose title property coerced to empty
func (m *Model) requireTitle(properties map[string]map[string]interface{}) error {
	titleName, ok := m.schema.TitleColumn()
	if !ok {
		return nil
	}
	wire, present := properties[titleName]
	if !present {
		return apperrors.Validationf("property %q is required", titleName)
	}
	runs, _ := wire["title"].([]interface{})
	if len(runs) == 0 {
		return apperrors.Validationf("property %q must not be empty", titleName)
	}
	return nil
}

// Update patches one row's values
func (m *Model) Update(ctx context.Context, id string, values map[string]interface{}) (*Entry, error) {
	properties := m.formatForWire(values)

	page, err := m.client.UpdatePage(ctx, id, properties)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("entry", id)
		}
		return nil, err
	}
	return m.formatFromWire(page), nil
}

// Archive soft-deletes one row. Archival is terminal through this API and
// idempotent: archiving an archived row succeeds with the same shape.
func (m *Model) Archive(ctx context.Context, id string) (*ArchiveResult, error) {
	_, err := m.client.ArchivePage(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("entry", id)
		}
		return nil, err
	}
	return &ArchiveResult{ID: id, Archived: true}, nil
}

// UpdateItem is one element of a batch update
type UpdateItem struct {
	ID     string                 `json:"id"`
	Values map[string]interface{} `json:"values"`
}

// CreateBatch inserts many rows through the batch executor
func (m *Model) CreateBatch(ctx context.Context, items []map[string]interface{}) *BatchSummary {
	result := batch.Run(ctx, items, func(ctx context.Context, values map[string]interface{}) (*Entry, error) {
		return m.Create(ctx, values)
	}, m.batchOpts)

	return Summarize(result, "created")
}

// UpdateBatch patches many rows through the batch executor
func (m *Model) UpdateBatch(ctx context.Context, items []UpdateItem) *BatchSummary {
	result := batch.Run(ctx, items, func(ctx context.Context, item UpdateItem) (*Entry, error) {
		return m.Update(ctx, item.ID, item.Values)
	}, m.batchOpts)

	return Summarize(result, "updated")
}

// ArchiveBatch archives many rows through the batch executor
func (m *Model) ArchiveBatch(ctx context.Context, ids []string) *BatchSummary {
	result := batch.Run(ctx, ids, func(ctx context.Context, id string) (*ArchiveResult, error) {
		return m.Archive(ctx, id)
	}, m.batchOpts)

	return Summarize(result, "archived")
}
