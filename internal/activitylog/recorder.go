// Package activitylog records membership lifecycle actions: the clinic API owns the
// log, Elasticsearch keeps a searchable mirror.
package activitylog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultIndex is the Elasticsearch index of the log mirror.
const DefaultIndex = "membership-logs"

// Recorder appends one activity log entry.
type Recorder interface {
	Append(ctx context.Context, entry models.ActivityLogEntry) error
}

// LogAPI is the part of the clinic API client the APIRecorder needs.
type LogAPI interface {
	AppendMembershipLog(ctx context.Context, entry models.ActivityLogEntry) error
}

// APIRecorder appends through POST /membership_logs.
type APIRecorder struct {
	api LogAPI
}

func NewAPIRecorder(api LogAPI) *APIRecorder {
	return &APIRecorder{api: api}
}

func (r *APIRecorder) Append(ctx context.Context, entry models.ActivityLogEntry) error {
	return r.api.AppendMembershipLog(ctx, entry)
}

// Document is the shape of a log entry in the search index.
type Document struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	MembershipID  string    `json:"membership_id"`
	Action        string    `json:"action"`
	Tier          string    `json:"tier"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"payment_method"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewDocument converts entry into its indexed form.
func NewDocument(entry models.ActivityLogEntry) Document {
	return Document{
		ID:            entry.ID,
		CustomerID:    entry.CustomerID,
		MembershipID:  entry.MembershipID,
		Action:        entry.Action,
		Tier:          string(entry.Tier),
		Amount:        entry.Amount,
		PaymentMethod: entry.PaymentMethod,
		Timestamp:     entry.Timestamp.UTC(),
	}
}

// SearchRecorder indexes entries into Elasticsearch, keyed by entry id so a replay
// overwrites instead of duplicating.
type SearchRecorder struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchRecorder(client *elasticsearch.Client, index string) *SearchRecorder {
	if index == "" {
		index = DefaultIndex
	}
	return &SearchRecorder{client: client, index: index}
}

func (r *SearchRecorder) Append(ctx context.Context, entry models.ActivityLogEntry) error {
	body, err := json.Marshal(NewDocument(entry))
	if err != nil {
		return fmt.Errorf("encode log document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: entry.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return errors.NewSearchQueryFailedError(r.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError(r.index, fmt.Errorf("index document: %s", res.Status()))
	}
	return nil
}

// Fanout appends to a primary recorder and then to any number of mirrors. Only the
// primary's error is returned; mirrors are skipped when it fails and their own
// failures are logged.
type Fanout struct {
	primary Recorder
	mirrors []Recorder
	logger  logger.Logger
}

func NewFanout(primary Recorder, log logger.Logger, mirrors ...Recorder) *Fanout {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Fanout{primary: primary, mirrors: mirrors, logger: log}
}

func (f *Fanout) Append(ctx context.Context, entry models.ActivityLogEntry) error {
	if err := f.primary.Append(ctx, entry); err != nil {
		return err
	}
	for _, m := range f.mirrors {
		if m == nil {
			continue
		}
		if err := m.Append(ctx, entry); err != nil {
			f.logger.WithError(err).Warn("log mirror append failed", map[string]interface{}{
				"logId":      entry.ID,
				"customerId": entry.CustomerID,
				"action":     entry.Action,
			})
		}
	}
	return nil
}
