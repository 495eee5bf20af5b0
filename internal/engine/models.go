package engine

import (
	"github.com/notiongate/notiongate/internal/rows"
	"github.com/notiongate/notiongate/internal/schema"
)

// ErrorResponse is the error body every endpoint uses
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// CreateDatabaseRequest creates a new database. Properties accepts the
// canonical column shape; select options may be bare strings or objects.
type CreateDatabaseRequest struct {
	Name       string                   `json:"name"`
	Properties map[string]schema.Column `json:"properties"`
	Parent     map[string]interface{}   `json:"parent,omitempty"`
}

// UpdateDatabaseRequest patches a database's name and/or columns
type UpdateDatabaseRequest struct {
	Name       string                   `json:"name,omitempty"`
	Properties map[string]schema.Column `json:"properties,omitempty"`
}

// DatabaseResponse wraps a single schema
type DatabaseResponse struct {
	Success  bool           `json:"success"`
	Database *schema.Schema `json:"database"`
}

// ListDatabasesResponse wraps the registered schema list
type ListDatabasesResponse struct {
	Success   bool             `json:"success"`
	Databases []*schema.Schema `json:"databases"`
}

// EntryResponse wraps a single row
type EntryResponse struct {
	Success bool        `json:"success"`
	Entry   *rows.Entry `json:"entry"`
}

// ListEntriesResponse wraps one page of rows
type ListEntriesResponse struct {
	Success    bool          `json:"success"`
	Results    []*rows.Entry `json:"results"`
	HasMore    bool          `json:"hasMore"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// ArchiveResponse wraps an archival confirmation
type ArchiveResponse struct {
	Success bool                `json:"success"`
	Result  *rows.ArchiveResult `json:"result"`
}

// CreateEntriesBatchRequest carries the rows to create
type CreateEntriesBatchRequest struct {
	Entries []map[string]interface{} `json:"entries"`
}

// UpdateEntriesBatchRequest carries the row patches to apply
type UpdateEntriesBatchRequest struct {
	Updates []rows.UpdateItem `json:"updates"`
}

// DeleteEntriesBatchRequest carries the row ids to archive
type DeleteEntriesBatchRequest struct {
	IDs []string `json:"ids"`
}
