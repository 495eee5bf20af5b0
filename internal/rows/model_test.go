package rows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiongate/notiongate/internal/batch"
	"github.com/notiongate/notiongate/internal/notion"
	"github.com/notiongate/notiongate/internal/registry"
	"github.com/notiongate/notiongate/internal/schema"
	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

func modelSchema() *schema.Schema {
	return &schema.Schema{
		ID:   "db-1",
		Name: "Projects",
		Columns: map[string]schema.Column{
			"Name":  {Type: schema.TypeTitle},
			"Done":  {Type: schema.TypeCheckbox},
			"Notes": {Type: schema.TypeRichText},
			"Total": {Type: schema.TypeFormula, FormulaExpression: "1 + 1"},
		},
	}
}

// newTestModel binds a model to a fake upstream
func newTestModel(t *testing.T, handler http.Handler) *Model {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.New("rows-test", "1.0.0")
	client := notion.NewClient(server.URL, "test-token", log)

	store, err := registry.NewFileStore(t.TempDir())
	require.NoError(t, err)
	reg := registry.New(store, client, log, "", "")
	require.NoError(t, reg.Register(modelSchema()))

	model, err := NewModel(reg, client, log, "db-1", batch.Options{
		ChunkSize: 10, MaxParallel: 10, RetryAttempts: 0, ChunkDelay: 0,
	})
	require.NoError(t, err)
	return model
}

func pageJSON(id string) map[string]interface{} {
	return map[string]interface{}{
		"object":           "page",
		"id":               id,
		"created_time":     "2026-01-01T00:00:00.000Z",
		"last_edited_time": "2026-01-02T00:00:00.000Z",
		"properties": map[string]interface{}{
			"Name": map[string]interface{}{
				"type":  "title",
				"title": []interface{}{map[string]interface{}{"plain_text": "Alpha"}},
			},
			"Done": map[string]interface{}{
				"type":     "checkbox",
				"checkbox": true,
			},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewModelUnknownDatabase(t *testing.T) {
	log := logger.New("rows-test", "1.0.0")
	store, err := registry.NewFileStore(t.TempDir())
	require.NoError(t, err)
	reg := registry.New(store, nil, log, "", "")

	_, err = NewModel(reg, nil, log, "no-such-db", batch.DefaultOptions())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateRequiresTitle(t *testing.T) {
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be reached when validation fails")
	}))

	_, err := model.Create(context.Background(), map[string]interface{}{
		"Notes": "no title here",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	// An empty title is as bad as a missing one.
	_, err = model.Create(context.Background(), map[string]interface{}{
		"Name": "",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestCreateCoercesValues(t *testing.T) {
	var captured map[string]interface{}
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, http.StatusOK, pageJSON("page-1"))
	}))

	entry, err := model.Create(context.Background(), map[string]interface{}{
		"Name": "Alpha",
		"done": "true",
		// Computed columns are dropped from writes.
		"Total": 99,
	})
	require.NoError(t, err)
	assert.Equal(t, "page-1", entry.ID)
	assert.Equal(t, "Alpha", entry.Values["Name"])
	assert.Equal(t, true, entry.Values["Done"])

	props := captured["properties"].(map[string]interface{})
	done := props["Done"].(map[string]interface{})
	assert.Equal(t, true, done["checkbox"], `the string "true" coerces to a boolean`)
	assert.NotContains(t, props, "Total")

	parent := captured["parent"].(map[string]interface{})
	assert.Equal(t, "db-1", parent["database_id"])
}

func TestGetMapsUpstreamNotFound(t *testing.T) {
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"object": "error", "status": 404, "code": "object_not_found",
			"message": "Could not find page",
		})
	}))

	_, err := model.Get(context.Background(), "missing-page")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing-page")
}

func TestUpdateSendsPatch(t *testing.T) {
	var captured map[string]interface{}
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/pages/page-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, http.StatusOK, pageJSON("page-1"))
	}))

	_, err := model.Update(context.Background(), "page-1", map[string]interface{}{
		"Notes": nil,
	})
	require.NoError(t, err)

	// A nil value clears the property with an explicit empty write.
	props := captured["properties"].(map[string]interface{})
	notes := props["Notes"].(map[string]interface{})
	runs, ok := notes["rich_text"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, runs)
}

func TestArchive(t *testing.T) {
	var captured map[string]interface{}
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		page := pageJSON("page-1")
		page["archived"] = true
		writeJSON(w, http.StatusOK, page)
	}))

	result, err := model.Archive(context.Background(), "page-1")
	require.NoError(t, err)
	assert.True(t, result.Archived)
	assert.Equal(t, "page-1", result.ID)
	assert.Equal(t, true, captured["archived"])
}

func TestListDefaultsAndFlattening(t *testing.T) {
	var captured map[string]interface{}
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/databases/db-1/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"object":      "list",
			"results":     []interface{}{pageJSON("page-1"), pageJSON("page-2")},
			"has_more":    true,
			"next_cursor": "cursor-xyz",
		})
	}))

	result, err := model.List(context.Background(), Query{
		Filters: map[string]interface{}{"Done": true},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Alpha", result.Rows[0].Values["Name"])
	assert.True(t, result.HasMore)
	assert.Equal(t, "cursor-xyz", result.NextCursor)

	// Default sort is most recently created first.
	sorts := captured["sorts"].([]interface{})
	require.Len(t, sorts, 1)
	sort := sorts[0].(map[string]interface{})
	assert.Equal(t, "created_time", sort["timestamp"])
	assert.Equal(t, "descending", sort["direction"])

	assert.Equal(t, float64(DefaultPageSize), captured["page_size"])
	assert.NotNil(t, captured["filter"])
}

func TestCreateBatchPartialFailure(t *testing.T) {
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		props := body["properties"].(map[string]interface{})
		name := props["Name"].(map[string]interface{})
		runs := name["title"].([]interface{})
		content := runs[0].(map[string]interface{})["text"].(map[string]interface{})["content"].(string)
		if content == "bad" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{
				"object": "error", "status": 400, "code": "validation_error",
				"message": "rejected",
			})
			return
		}
		writeJSON(w, http.StatusOK, pageJSON("page-ok"))
	}))

	summary := model.CreateBatch(context.Background(), []map[string]interface{}{
		{"Name": "good one"},
		{"Name": "bad"},
		{"Name": "good two"},
	})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, 1, summary.Errors[0].Index)

	counted := summary.Counted()
	assert.Equal(t, 2, counted["created"])
	assert.Equal(t, 1, counted["failed"])
}

func TestArchiveBatchAllSucceed(t *testing.T) {
	model := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := pageJSON("page-1")
		page["archived"] = true
		writeJSON(w, http.StatusOK, page)
	}))

	summary := model.ArchiveBatch(context.Background(), []string{"a", "b", "c"})
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, "archived", summary.Action)
}
