package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

const (
	// DefaultBaseURL is the upstream API root
	DefaultBaseURL = "https://api.notion.com/v1"

	// apiVersion pins the upstream wire format
	apiVersion = "2022-06-28"

	// maxAttempts bounds retries on 429 and transient 5xx responses
	maxAttempts = 3
)

// Client is a thin HTTP client for the upstream API. All calls are
// rate-limited upstream; retries are paced with exponential backoff and the
// Retry-After header is honored on 429 responses.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates an upstream client with the given bearer token
func NewClient(baseURL, token string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
	}

	b := &backoff.Backoff{
		Min:    250 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to build request: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Notion-Version", apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &apperrors.UpstreamError{Message: err.Error()}
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return &apperrors.UpstreamError{StatusCode: resp.StatusCode, Message: err.Error()}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("failed to decode response: %v", err)
			}
			return nil
		}

		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		lastErr = &apperrors.UpstreamError{
			StatusCode: resp.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}

		if !retryable(resp.StatusCode) || attempt == maxAttempts {
			return lastErr
		}

		wait := b.Duration()
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := time.ParseDuration(ra + "s"); perr == nil {
				wait = secs
			}
		}

		if c.logger != nil {
			c.logger.Warnf("Upstream returned %d for %s %s, retrying in %s (attempt %d/%d)",
				resp.StatusCode, method, path, wait, attempt, maxAttempts)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// CreateDatabase creates a new database under the given parent
func (c *Client) CreateDatabase(ctx context.Context, parent map[string]interface{}, name string, properties map[string]map[string]interface{}) (*Database, error) {
	body := map[string]interface{}{
		"parent":     parent,
		"title":      TextTitle(name),
		"properties": properties,
	}
	var db Database
	if err := c.do(ctx, http.MethodPost, "/databases", body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// UpdateDatabase patches a database's title and/or property definitions
func (c *Client) UpdateDatabase(ctx context.Context, id string, patch map[string]interface{}) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodPatch, "/databases/"+id, patch, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// RetrieveDatabase fetches the live definition of a database
func (c *Client) RetrieveDatabase(ctx context.Context, id string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+id, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// QueryDatabase runs a filtered, sorted, paginated query against a database
func (c *Client) QueryDatabase(ctx context.Context, id string, query *QueryRequest) (*QueryResult, error) {
	var result QueryResult
	if err := c.do(ctx, http.MethodPost, "/databases/"+id+"/query", query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreatePage creates a page (row) inside the given database
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]map[string]interface{}) (*Page, error) {
	body := map[string]interface{}{
		"parent":     map[string]interface{}{"database_id": databaseID},
		"properties": properties,
	}
	var page Page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RetrievePage fetches a single page by id
func (c *Client) RetrievePage(ctx context.Context, id string) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, "/pages/"+id, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdatePage patches a page's property values
func (c *Client) UpdatePage(ctx context.Context, id string, properties map[string]map[string]interface{}) (*Page, error) {
	body := map[string]interface{}{"properties": properties}
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+id, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ArchivePage soft-deletes a page. Archiving an already archived page
// succeeds upstream, so the call is idempotent.
func (c *Client) ArchivePage(ctx context.Context, id string) (*Page, error) {
	body := map[string]interface{}{"archived": true}
	var page Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+id, body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search lists databases the integration can reach, most recently edited first
func (c *Client) Search(ctx context.Context, cursor string) (*SearchResult, error) {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"value":    "database",
			"property": "object",
		},
		"sort": map[string]interface{}{
			"direction": "descending",
			"timestamp": "last_edited_time",
		},
	}
	if cursor != "" {
		body["start_cursor"] = cursor
	}
	var result SearchResult
	if err := c.do(ctx, http.MethodPost, "/search", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
