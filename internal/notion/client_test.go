package notion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notiongate/notiongate/pkg/apperrors"
	"github.com/notiongate/notiongate/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "secret-token", logger.New("notion-test", "1.0.0"))
}

func TestClientSendsHeaders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2022-06-28", r.Header.Get("Notion-Version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"object": "page", "id": "p-1"})
	}))

	page, err := client.CreatePage(context.Background(), "db-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "p-1", page.ID)
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "error", "status": 429, "code": "rate_limited",
				"message": "slow down",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"object": "page", "id": "p-1"})
	}))

	page, err := client.RetrievePage(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", page.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.RetrievePage(context.Background(), "p-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUpstream(err))
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&calls))
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "error", "status": 400, "code": "validation_error",
			"message": "bad property",
		})
	}))

	_, err := client.RetrievePage(context.Background(), "p-1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var upstream *apperrors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.Equal(t, "validation_error", upstream.Code)
	assert.Equal(t, "bad property", upstream.Message)
}

func TestClientUpstream404IsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "error", "status": 404, "code": "object_not_found",
			"message": "Could not find database",
		})
	}))

	_, err := client.RetrieveDatabase(context.Background(), "db-x")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearchPaginationCursor(t *testing.T) {
	var captured map[string]interface{}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list", "results": []interface{}{}, "has_more": false,
		})
	}))

	_, err := client.Search(context.Background(), "cursor-1")
	require.NoError(t, err)
	assert.Equal(t, "cursor-1", captured["start_cursor"])

	filter := captured["filter"].(map[string]interface{})
	assert.Equal(t, "database", filter["value"])
}

func TestDatabasePlainTitle(t *testing.T) {
	db := &Database{Title: []map[string]interface{}{
		{"plain_text": ""},
		{"plain_text": "Projects"},
	}}
	assert.Equal(t, "Projects", db.PlainTitle())

	empty := &Database{}
	assert.Equal(t, "", empty.PlainTitle())
}
