// Package discovery is read-only upstream introspection. It exists to
// hydrate the registry when a database is referenced by id before being
// registered locally.
package discovery

import (
	"context"

	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/schema"
	"github.com/notiongate/notiongate/pkg/logger"
)

// DatabaseInfo is the summary returned by workspace search
type DatabaseInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	URL            string `json:"url,omitempty"`
	CreatedTime    string `json:"createdTime"`
	LastEditedTime string `json:"lastEditedTime"`
}

// Service lists and inspects upstream databases
type Service struct {
	client *notion.Client
	logger *logger.Logger
}

// New creates a discovery service
func New(client *notion.Client, log *logger.Logger) *Service {
	return &Service{client: client, logger: log}
}

// ListAll searches the workspace for databases, most recently edited first,
// following pagination to the end
func (s *Service) ListAll(ctx context.Context) ([]DatabaseInfo, error) {
	var databases []DatabaseInfo
	cursor := ""

	for {
		result, err := s.client.Search(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for i := range result.Results {
			db := &result.Results[i]
			name := db.PlainTitle()
			if name == "" {
				name = "Untitled Database"
			}
			databases = append(databases, DatabaseInfo{
				ID:             db.ID,
				Name:           name,
				URL:            db.URL,
				CreatedTime:    db.CreatedTime,
				LastEditedTime: db.LastEditedTime,
			})
		}

		if !result.HasMore || result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}

	s.logger.Infof("Discovered %d databases in workspace", len(databases))
	return databases, nil
}

// FetchSchema retrieves a database's live definition and normalizes it to
// canonical form, ready for registry registration
func (s *Service) FetchSchema(ctx context.Context, id string) (*schema.Schema, error) {
	db, err := s.client.RetrieveDatabase(ctx, id)
	if err != nil {
		return nil, err
	}

	name := db.PlainTitle()
	if name == "" {
		name = "Untitled Database"
	}

	return &schema.Schema{
		ID:             db.ID,
		Name:           name,
		Columns:        schema.FromWireColumns(db.Properties),
		CreatedTime:    db.CreatedTime,
		LastEditedTime: db.LastEditedTime,
		URL:            db.URL,
	}, nil
}
