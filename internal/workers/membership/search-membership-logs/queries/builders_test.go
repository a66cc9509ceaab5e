package queries

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestPagination_Normalize(t *testing.T) {
	tests := []struct {
		in, want Pagination
	}{
		{Pagination{}, Pagination{From: 0, Size: DefaultPageSize}},
		{Pagination{From: -4, Size: 5}, Pagination{From: 0, Size: 5}},
		{Pagination{From: 40, Size: 500}, Pagination{From: 40, Size: MaxPageSize}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Normalize())
	}
}

func TestBuildQuery_RequiresIndex(t *testing.T) {
	_, err := BuildQuery(LogQuery{})
	assert.ErrorIs(t, err, ErrMissingIndex)
}

func TestBuildLogSearchQuery_MatchAll(t *testing.T) {
	raw, err := json.Marshal(buildLogSearchQuery(LogQuery{Index: "membership-logs"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"match_all": {}},
		"sort": [{"timestamp": {"order": "desc"}}]
	}`, string(raw))
}

func TestBuildLogSearchQuery_Filters(t *testing.T) {
	raw, err := json.Marshal(buildLogSearchQuery(LogQuery{
		Index:      "membership-logs",
		CustomerID: "7",
		Tier:       "pro",
		From:       day(2025, 3, 1),
		To:         day(2025, 3, 31),
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"query": {"bool": {"filter": [
			{"term": {"customer_id": "7"}},
			{"term": {"tier": "pro"}},
			{"range": {"timestamp": {"gte": "2025-03-01T00:00:00Z", "lt": "2025-04-01T00:00:00Z"}}}
		]}},
		"sort": [{"timestamp": {"order": "desc"}}]
	}`, string(raw))
}

func TestBuildLogSearchQuery_ExactUpperBound(t *testing.T) {
	to := time.Date(2025, 3, 31, 18, 30, 0, 0, time.UTC)
	body := buildLogSearchQuery(LogQuery{Index: "membership-logs", To: &to})

	filter := body["query"].(map[string]interface{})["bool"].(map[string]interface{})["filter"].([]interface{})
	bounds := filter[0].(map[string]interface{})["range"].(map[string]interface{})["timestamp"].(map[string]interface{})
	assert.Equal(t, "2025-03-31T18:30:00Z", bounds["lte"])
	assert.NotContains(t, bounds, "gte")
}

func createTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestExecute_DecodesHits(t *testing.T) {
	var (
		gotPath  string
		gotQuery map[string]string
		gotBody  []byte
	)
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"from":             r.URL.Query().Get("from"),
			"size":             r.URL.Query().Get("size"),
			"track_total_hits": r.URL.Query().Get("track_total_hits"),
		}
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{
			"took": 4,
			"hits": {
				"total": {"value": 2, "relation": "eq"},
				"hits": [
					{"_id": "log-2", "_source": {"id": "log-2", "customer_id": "7", "action": "renewed", "amount": 11000}},
					{"_id": "log-1", "_source": {"id": "log-1", "customer_id": "7", "action": "new member", "amount": 5000}}
				]
			}
		}`))
	})

	res, err := Execute(context.Background(), es, LogQuery{
		Index:      "membership-logs",
		CustomerID: "7",
		Pagination: Pagination{From: 10, Size: 250},
	})
	require.NoError(t, err)

	assert.Equal(t, "/membership-logs/_search", gotPath)
	assert.Equal(t, map[string]string{"from": "10", "size": "100", "track_total_hits": "true"}, gotQuery)
	assert.Contains(t, string(gotBody), `"customer_id":"7"`)

	assert.Equal(t, int64(2), res.TotalHits)
	assert.Equal(t, int64(4), res.Took)
	require.Len(t, res.Data, 2)
	assert.Equal(t, "log-2", res.Data[0]["id"])
	assert.Equal(t, 11000.0, res.Data[0]["amount"])
}

func TestExecute_IndexNotFound(t *testing.T) {
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := Execute(context.Background(), es, LogQuery{Index: "membership-logs"})
	assert.True(t, stderrors.Is(err, ErrIndexNotFound))
}

func TestExecute_ServerError(t *testing.T) {
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"parsing_exception"},"status":400}`))
	})

	_, err := Execute(context.Background(), es, LogQuery{Index: "membership-logs"})
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, ErrIndexNotFound))
	assert.Contains(t, err.Error(), "search query failed")
}
