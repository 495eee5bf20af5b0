package notion

// Wire types for the upstream API. Envelopes are typed; property payloads
// stay as generic maps because their shape varies per property type and the
// null-vs-omitted distinction matters on writes (an explicit null clears a
// property, an omitted key leaves it alone).

// Page represents an upstream page (one row of a database)
type Page struct {
	Object         string                            `json:"object"`
	ID             string                            `json:"id"`
	CreatedTime    string                            `json:"created_time"`
	LastEditedTime string                            `json:"last_edited_time"`
	Archived       bool                              `json:"archived"`
	URL            string                            `json:"url,omitempty"`
	Parent         map[string]interface{}            `json:"parent,omitempty"`
	Properties     map[string]map[string]interface{} `json:"properties"`
}

// Database represents an upstream database (a table definition)
type Database struct {
	Object         string                            `json:"object"`
	ID             string                            `json:"id"`
	CreatedTime    string                            `json:"created_time"`
	LastEditedTime string                            `json:"last_edited_time"`
	URL            string                            `json:"url,omitempty"`
	Title          []map[string]interface{}          `json:"title,omitempty"`
	Parent         map[string]interface{}            `json:"parent,omitempty"`
	Properties     map[string]map[string]interface{} `json:"properties"`
}

// PlainTitle extracts the database title as a plain string
func (d *Database) PlainTitle() string {
	for _, run := range d.Title {
		if s, ok := run["plain_text"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// QueryRequest is the body of a database query call
type QueryRequest struct {
	Filter      interface{}              `json:"filter,omitempty"`
	Sorts       []map[string]interface{} `json:"sorts,omitempty"`
	PageSize    int                      `json:"page_size,omitempty"`
	StartCursor string                   `json:"start_cursor,omitempty"`
}

// QueryResult is one page of database query results
type QueryResult struct {
	Object     string `json:"object"`
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// SearchResult is one page of workspace search results scoped to databases
type SearchResult struct {
	Object     string     `json:"object"`
	Results    []Database `json:"results"`
	HasMore    bool       `json:"has_more"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// TextTitle builds the rich-text title payload used on database create/update
func TextTitle(name string) []map[string]interface{} {
	return []map[string]interface{}{
		{"type": "text", "text": map[string]interface{}{"content": name}},
	}
}

// apiError is the upstream error body
type apiError struct {
	Object  string `json:"object"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
