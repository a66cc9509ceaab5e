package validatemembership

import (
	"context"
	"strings"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
)

type Service struct {
	config *Config
	reader MembershipReader
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		reader: deps.Reader,
		logger: deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		return nil, errors.NewValidationError("customer_id", "customer id is required")
	}

	rec, err := s.reader.CurrentMembership(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.reader.Now()
	out := membership.NewCurrentOutput(customerID, rec, now)

	if s.config.FailOnInactive && !out.IsActive {
		if rec == nil {
			return nil, errors.NewNotFoundError("membership", customerID)
		}
		return nil, errors.NewMembershipExpiredError(customerID, *rec.ExpireDate)
	}

	s.logger.Debug("Membership checked", map[string]interface{}{
		"customerId": customerID,
		"isActive":   out.IsActive,
		"tier":       out.Tier,
	})
	return &out, nil
}
