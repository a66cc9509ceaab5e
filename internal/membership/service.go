package membership

import (
	"context"
	"strings"
	"time"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/common/metrics"
	"clinic-workers/internal/common/observability"
	"clinic-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Store is the system of record for customers and their memberships.
type Store interface {
	GetCustomer(ctx context.Context, customerID string) (*models.Customer, error)
	ListMemberships(ctx context.Context, customerID string) ([]models.MembershipRecord, error)
	// CreateMembership persists rec and returns the id the store assigned, or ""
	// when the store keeps the client id.
	CreateMembership(ctx context.Context, rec models.MembershipRecord, wireAction, priorID string) (string, error)
}

// Recorder appends activity log entries.
type Recorder interface {
	Append(ctx context.Context, entry models.ActivityLogEntry) error
}

type ServiceOptions struct {
	Store         Store
	Recorder      Recorder
	Cache         *Cache
	Evaluator     *Evaluator
	Logger        logger.Logger
	Observability *observability.Observability
	Clock         func() time.Time
}

// Service runs the membership lifecycle against the store.
type Service struct {
	store     Store
	recorder  Recorder
	cache     *Cache
	evaluator *Evaluator
	logger    logger.Logger
	obs       *observability.Observability
	clock     func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	s := &Service{
		store:     opts.Store,
		recorder:  opts.Recorder,
		cache:     opts.Cache,
		evaluator: opts.Evaluator,
		logger:    opts.Logger,
		obs:       opts.Observability,
		clock:     opts.Clock,
	}
	if s.evaluator == nil {
		s.evaluator = NewEvaluator(time.UTC)
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	return s
}

// Evaluate creates or renews the customer's membership. The membership write must
// succeed; the activity log append is best effort and reported in LogRecorded.
func (s *Service) Evaluate(ctx context.Context, req Request) (result *LifecycleResult, err error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	ctx, span := s.obs.StartSpan(ctx, "membership.evaluate",
		attribute.String("customer.id", req.CustomerID),
		attribute.String("membership.tier", req.Tier),
	)
	defer func() { observability.EndSpan(span, err) }()

	if _, err = Validate(req); err != nil {
		return nil, err
	}

	if _, err = s.store.GetCustomer(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	records, err := s.store.ListMemberships(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	prior := Latest(records)

	result, err = s.evaluator.Decide(prior, req, s.clock())
	if err != nil {
		return nil, err
	}

	remoteID, err := s.store.CreateMembership(ctx, result.Record, result.WireAction, result.PriorID)
	if err != nil {
		return nil, err
	}
	if remoteID != "" {
		result.Record.ID = remoteID
		result.LogEntry.MembershipID = remoteID
	}

	metrics.MembershipEvaluations.WithLabelValues(string(result.Record.Tier), result.Action).Inc()
	span.SetAttributes(
		attribute.String("membership.id", result.Record.ID),
		attribute.String("membership.action", result.Action),
	)

	result.LogRecorded = s.appendLog(ctx, result.LogEntry)
	s.invalidate(ctx, req.CustomerID)

	s.logger.Info("membership lifecycle action persisted", map[string]interface{}{
		"customerId":   req.CustomerID,
		"membershipId": result.Record.ID,
		"action":       result.Action,
		"tier":         string(result.Record.Tier),
		"coverage":     result.Record.Coverage,
		"logRecorded":  result.LogRecorded,
	})
	return result, nil
}

// CurrentMembership returns the customer's current record, nil when there is none.
// Reads go through the cache when one is configured.
func (s *Service) CurrentMembership(ctx context.Context, customerID string) (*models.MembershipRecord, error) {
	if s.cache == nil {
		return s.latest(ctx, customerID)
	}
	return s.cache.CurrentMembership(ctx, customerID, s.latest)
}

// Now is the service clock.
func (s *Service) Now() time.Time {
	return s.clock()
}

func (s *Service) latest(ctx context.Context, customerID string) (*models.MembershipRecord, error) {
	records, err := s.store.ListMemberships(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return Latest(records), nil
}

func (s *Service) appendLog(ctx context.Context, entry models.ActivityLogEntry) bool {
	if s.recorder == nil {
		return false
	}
	if err := s.recorder.Append(ctx, entry); err != nil {
		metrics.MembershipLogAppendFailures.Inc()
		s.logger.Warn("activity log append failed, membership kept", map[string]interface{}{
			"customerId":   entry.CustomerID,
			"membershipId": entry.MembershipID,
			"action":       entry.Action,
			"error":        err.Error(),
		})
		return false
	}
	return true
}

func (s *Service) invalidate(ctx context.Context, customerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, customerID); err != nil {
		s.logger.Warn("membership cache invalidation failed", map[string]interface{}{
			"customerId": customerID,
			"error":      err.Error(),
		})
	}
}
