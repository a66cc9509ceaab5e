package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ErrMissingIndex = errors.New("index name is required")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// LogQuery filters the membership log mirror. Zero values do not filter.
type LogQuery struct {
	Index      string
	CustomerID string
	Action     string
	Tier       string
	From       *time.Time
	To         *time.Time
	Pagination Pagination
}

type Pagination struct {
	From int
	Size int
}

// Normalize clamps pagination to [1, MaxPageSize] with DefaultPageSize for zero.
func (p Pagination) Normalize() Pagination {
	if p.From < 0 {
		p.From = 0
	}
	switch {
	case p.Size <= 0:
		p.Size = DefaultPageSize
	case p.Size > MaxPageSize:
		p.Size = MaxPageSize
	}
	return p
}

// BuildQuery builds the search request, newest entries first.
func BuildQuery(q LogQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}

	body, err := json.Marshal(buildLogSearchQuery(q))
	if err != nil {
		return nil, err
	}

	page := q.Pagination.Normalize()
	return &esapi.SearchRequest{
		Index:          []string{q.Index},
		Body:           bytes.NewReader(body),
		From:           &page.From,
		Size:           &page.Size,
		TrackTotalHits: true,
	}, nil
}

func buildLogSearchQuery(q LogQuery) map[string]interface{} {
	filterClauses := []interface{}{}

	terms := []struct{ field, value string }{
		{"customer_id", q.CustomerID},
		{"action", q.Action},
		{"tier", q.Tier},
	}
	for _, t := range terms {
		if t.value != "" {
			filterClauses = append(filterClauses, map[string]interface{}{
				"term": map[string]interface{}{t.field: t.value},
			})
		}
	}

	if q.From != nil || q.To != nil {
		bounds := map[string]interface{}{}
		if q.From != nil {
			bounds["gte"] = q.From.UTC().Format(time.RFC3339)
		}
		if q.To != nil {
			bounds[upperBound(*q.To)] = endOf(*q.To).UTC().Format(time.RFC3339)
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{"timestamp": bounds},
		})
	}

	var query map[string]interface{}
	if len(filterClauses) == 0 {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query = map[string]interface{}{
			"bool": map[string]interface{}{"filter": filterClauses},
		}
	}

	return map[string]interface{}{
		"query": query,
		"sort": []map[string]interface{}{
			{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}
}

// A bare date as the upper bound covers that whole day.
func upperBound(to time.Time) string {
	if isMidnight(to) {
		return "lt"
	}
	return "lte"
}

func endOf(to time.Time) time.Time {
	if isMidnight(to) {
		return to.AddDate(0, 0, 1)
	}
	return to
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
