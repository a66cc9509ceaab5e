package searchmembershiplogs

import (
	"context"
	stderrors "errors"
	"strings"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/models"
	"clinic-workers/internal/workers/membership/search-membership-logs/queries"

	"github.com/elastic/go-elasticsearch/v8"
)

type Service struct {
	config *Config
	client *elasticsearch.Client
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		client: deps.Client,
		logger: deps.Logger,
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	q, err := s.toQuery(input)
	if err != nil {
		return nil, err
	}

	result, err := queries.Execute(ctx, s.client, q)
	if err != nil {
		switch {
		case ctx.Err() == context.DeadlineExceeded:
			return nil, errors.NewSearchTimeoutError(q.Index)
		case stderrors.Is(err, queries.ErrIndexNotFound):
			return nil, errors.NewIndexNotFoundError(q.Index)
		default:
			return nil, errors.NewSearchQueryFailedError(q.Index, err)
		}
	}

	s.logger.Debug("Membership logs searched", map[string]interface{}{
		"customerId": q.CustomerID,
		"totalHits":  result.TotalHits,
		"took":       result.Took,
	})

	return &Output{
		Data:      result.Data,
		TotalHits: result.TotalHits,
		Took:      result.Took,
	}, nil
}

func (s *Service) toQuery(input *Input) (queries.LogQuery, error) {
	q := queries.LogQuery{
		Index:      s.config.Index,
		CustomerID: strings.TrimSpace(input.CustomerID),
		Action:     input.Action,
		Pagination: queries.Pagination{From: input.Pagination.From, Size: input.Pagination.Size},
	}

	if strings.TrimSpace(input.Tier) != "" {
		tier, err := models.ParseTier(input.Tier)
		if err != nil {
			return q, err
		}
		q.Tier = string(tier)
	}

	from, err := models.ParseWireDate(input.From)
	if err != nil {
		return q, errors.NewValidationError("from", err.Error())
	}
	to, err := models.ParseWireDate(input.To)
	if err != nil {
		return q, errors.NewValidationError("to", err.Error())
	}
	if from != nil && to != nil && to.Before(*from) {
		return q, errors.NewValidationError("to", "must not be before from")
	}
	q.From, q.To = from, to
	return q, nil
}
