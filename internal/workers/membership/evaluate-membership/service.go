package evaluatemembership

import (
	"context"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
)

type Service struct {
	lifecycle Lifecycle
	logger    logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		lifecycle: deps.Lifecycle,
		logger:    deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := input.ToRequest()
	if err != nil {
		return nil, err
	}

	res, err := s.lifecycle.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !res.LogRecorded {
		s.logger.Warn("Membership saved without activity log entry", map[string]interface{}{
			"customerId":   res.Record.CustomerID,
			"membershipId": res.Record.ID,
		})
	}

	out := membership.NewEvaluateOutput(res)
	return &out, nil
}
