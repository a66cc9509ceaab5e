package activitylog

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"clinic-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureIndex_CreatesKeywordMapping(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   map[string]interface{}
	)
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"acknowledged":true,"index":"membership-logs"}`))
	})

	require.NoError(t, EnsureIndex(context.Background(), es, ""))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/membership-logs", gotPath)

	props := gotBody["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	for _, field := range []string{"customer_id", "action", "tier"} {
		assert.Equal(t, "keyword", props[field].(map[string]interface{})["type"], field)
	}
	assert.Equal(t, "date", props["timestamp"].(map[string]interface{})["type"])
}

func TestEnsureIndex_AlreadyExists(t *testing.T) {
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"resource_already_exists_exception","index":"membership-logs"},"status":400}`))
	})

	assert.NoError(t, EnsureIndex(context.Background(), es, "membership-logs"))
}

func TestEnsureIndex_Failure(t *testing.T) {
	es := createTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"mapper_parsing_exception"},"status":400}`))
	})

	err := EnsureIndex(context.Background(), es, "logs-test")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSearchQueryFailed, errors.CodeOf(err))
}
