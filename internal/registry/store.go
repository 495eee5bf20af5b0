package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/notiongate/notiongate/internal/schema"
)

// Store is durable whole-document storage for schema records keyed by
// database id. Directory-style storage is the default; any key-value store
// that can hold one document per id works.
type Store interface {
	List(ctx context.Context) ([]*schema.Schema, error)
	Load(ctx context.Context, id string) (*schema.Schema, error)
	Save(ctx context.Context, s *schema.Schema) error
	Delete(ctx context.Context, id string) error
}

// FileStore keeps one JSON file per database id in a directory
type FileStore struct {
	dir string
}

// NewFileStore creates the directory when missing
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create schema directory %s: %v", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}

// List loads every schema record in the directory
func (fs *FileStore) List(ctx context.Context) ([]*schema.Schema, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %v", err)
	}

	var schemas []*schema.Schema
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(fs.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %v", entry.Name(), err)
		}
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode schema file %s: %v", entry.Name(), err)
		}
		schemas = append(schemas, &s)
	}
	return schemas, nil
}

// Load reads a single schema record, nil when absent
func (fs *FileStore) Load(ctx context.Context, id string) (*schema.Schema, error) {
	data, err := os.ReadFile(fs.path(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %v", id, err)
	}
	var s schema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode schema %s: %v", id, err)
	}
	return &s, nil
}

// Save writes a schema record
func (fs *FileStore) Save(ctx context.Context, s *schema.Schema) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema %s: %v", s.ID, err)
	}
	if err := os.WriteFile(fs.path(s.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema %s: %v", s.ID, err)
	}
	return nil
}

// Delete removes a schema record, succeeding when already absent
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	err := os.Remove(fs.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete schema %s: %v", id, err)
	}
	return nil
}
