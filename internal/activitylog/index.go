package activitylog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"clinic-workers/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// IndexMapping is the explicit mapping of the log index. Filtered fields are
// keywords so term queries match whole values such as "new member".
var IndexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"dynamic": "strict",
		"properties": map[string]interface{}{
			"id":             map[string]interface{}{"type": "keyword"},
			"customer_id":    map[string]interface{}{"type": "keyword"},
			"membership_id":  map[string]interface{}{"type": "keyword"},
			"action":         map[string]interface{}{"type": "keyword"},
			"tier":           map[string]interface{}{"type": "keyword"},
			"payment_method": map[string]interface{}{"type": "keyword"},
			"amount":         map[string]interface{}{"type": "double"},
			"timestamp":      map[string]interface{}{"type": "date"},
		},
	},
}

// EnsureIndex creates index with IndexMapping. An index that already exists is
// left untouched.
func EnsureIndex(ctx context.Context, client *elasticsearch.Client, index string) error {
	if index == "" {
		index = DefaultIndex
	}
	body, err := json.Marshal(IndexMapping)
	if err != nil {
		return fmt.Errorf("encode index mapping: %w", err)
	}

	req := esapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return errors.NewSearchQueryFailedError(index, err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		return nil
	}
	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusBadRequest && strings.Contains(string(raw), "resource_already_exists_exception") {
		return nil
	}
	return errors.NewSearchQueryFailedError(index, fmt.Errorf("create index: %s", res.Status()))
}
