// Package registry holds the process-wide authoritative mapping from
// database id to canonical schema, backed by durable storage. One id — the
// fixed Tasks database — is reserved: it is managed by a separate fixed
// schema path and stays invisible to every registry operation.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/schema"
	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

// Registry maps database ids to canonical schemas
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*schema.Schema

	store        Store
	client       *notion.Client
	logger       *logger.Logger
	reservedID   string
	parentPageID string
}

// New creates a registry. reservedID may be empty when no fixed-schema
// database is configured; parentPageID is the default container for newly
// created databases.
func New(store Store, client *notion.Client, log *logger.Logger, reservedID, parentPageID string) *Registry {
	return &Registry{
		schemas:      make(map[string]*schema.Schema),
		store:        store,
		client:       client,
		logger:       log,
		reservedID:   reservedID,
		parentPageID: parentPageID,
	}
}

// isReserved is the single reserved-id guard every method consults
func (r *Registry) isReserved(id string) bool {
	return r.reservedID != "" && id == r.reservedID
}

// Initialize loads every stored schema record into memory. A record found
// under the reserved id is deleted from durable storage, not merely skipped:
// the reserved database must never round-trip through dynamic persistence.
func (r *Registry) Initialize(ctx context.Context) error {
	stored, err := r.store.List(ctx)
	if err != nil {
		return err
	}

	loaded := 0
	for _, s := range stored {
		if r.isReserved(s.ID) {
			r.logger.Warnf("Discarding stored schema for reserved database id %s", s.ID)
			if err := r.store.Delete(ctx, s.ID); err != nil {
				return err
			}
			continue
		}
		if err := r.Register(s); err != nil {
			r.logger.Errorf("Skipping invalid stored schema: %v", err)
			continue
		}
		loaded++
	}

	r.logger.Infof("Loaded %d database schemas from storage", loaded)
	return nil
}

// Register inserts or overwrites a schema in the in-memory map
func (r *Registry) Register(s *schema.Schema) error {
	if s == nil || s.ID == "" || s.Name == "" {
		return apperrors.Validationf("database schema must include id and name")
	}
	if r.isReserved(s.ID) {
		r.logger.Warnf("Ignoring registration for reserved database id %s", s.ID)
		return nil
	}

	r.mu.Lock()
	r.schemas[s.ID] = s
	r.mu.Unlock()

	r.logger.Infof("Registered database: %s (%s)", s.Name, s.ID)
	return nil
}

// Get returns the schema for an id. The reserved id is always absent
// through this path, whatever the map holds.
func (r *Registry) Get(id string) (*schema.Schema, bool) {
	if r.isReserved(id) {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	return s, ok
}

// All returns every registered schema, sorted by name
func (r *Registry) All() []*schema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*schema.Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Save persists a schema to durable storage; no-op for the reserved id
func (r *Registry) Save(ctx context.Context, s *schema.Schema) error {
	if r.isReserved(s.ID) {
		return nil
	}
	return r.store.Save(ctx, s)
}

// CreateOptions describes a database to create upstream
type CreateOptions struct {
	Name    string
	Columns map[string]schema.Column
	Parent  map[string]interface{}
}

// Create makes a new database upstream, registers it, and persists it.
// Parent resolution: explicit parent, then the configured parent page,
// then the workspace root.
func (r *Registry) Create(ctx context.Context, opts CreateOptions) (*schema.Schema, error) {
	if opts.Name == "" {
		return nil, apperrors.Validationf("database name is required")
	}

	columns := schema.EnsureTitle(opts.Columns)
	wireProps, err := schema.ToWireColumns(columns)
	if err != nil {
		return nil, err
	}

	parent := opts.Parent
	if parent == nil && r.parentPageID != "" {
		parent = map[string]interface{}{"type": "page_id", "page_id": r.parentPageID}
	}
	if parent == nil {
		parent = map[string]interface{}{"type": "workspace", "workspace": true}
	}

	db, err := r.client.CreateDatabase(ctx, parent, opts.Name, wireProps)
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{
		ID:             db.ID,
		Name:           opts.Name,
		Columns:        columns,
		CreatedTime:    db.CreatedTime,
		LastEditedTime: db.LastEditedTime,
		URL:            db.URL,
	}

	if err := r.Register(s); err != nil {
		return nil, err
	}
	if err := r.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdatePatch describes changes to an existing database
type UpdatePatch struct {
	Name    string
	Columns map[string]schema.Column
}

// Update patches the upstream database and then re-syncs the live schema
// into the registry so local state never drifts from upstream.
func (r *Registry) Update(ctx context.Context, id string, patch UpdatePatch) (*schema.Schema, error) {
	current, ok := r.Get(id)
	if !ok {
		return nil, apperrors.NotFound("database", id)
	}

	wirePatch := make(map[string]interface{})
	if patch.Name != "" {
		wirePatch["title"] = notion.TextTitle(patch.Name)
	}
	if len(patch.Columns) > 0 {
		props := make(map[string]map[string]interface{}, len(patch.Columns))
		for name, col := range patch.Columns {
			wire, err := schema.ToWireColumn(name, col)
			if err != nil {
				return nil, err
			}
			if wire != nil {
				props[name] = wire
			}
		}
		wirePatch["properties"] = props
	}

	if _, err := r.client.UpdateDatabase(ctx, id, wirePatch); err != nil {
		return nil, err
	}

	live, err := r.client.RetrieveDatabase(ctx, id)
	if err != nil {
		return nil, err
	}

	name := live.PlainTitle()
	if name == "" {
		name = patch.Name
	}
	if name == "" {
		name = current.Name
	}

	updated := &schema.Schema{
		ID:             live.ID,
		Name:           name,
		Columns:        schema.FromWireColumns(live.Properties),
		CreatedTime:    current.CreatedTime,
		LastEditedTime: live.LastEditedTime,
		URL:            live.URL,
	}

	r.mu.Lock()
	r.schemas[id] = updated
	r.mu.Unlock()

	if err := r.Save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove drops a schema from the in-memory map only. The durable record is
// kept; this is a maintenance escape hatch, not part of normal lifecycle.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.schemas, id)
	r.mu.Unlock()
}
