package upsertmembershipcatalog

import (
	"context"
	"strings"
	"time"

	"clinic-workers/internal/common/database"
	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
	"clinic-workers/internal/models"

	"github.com/google/uuid"
)

type Service struct {
	db     *database.PostgresClient
	logger logger.Logger
	clock  func() time.Time
}

func NewService(deps ServiceDependencies) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:     deps.DB,
		logger: deps.Logger,
		clock:  clock,
	}
}

// Execute creates or updates a catalog definition. Basic and Pro may have only
// one current active definition; Promo definitions are unrestricted.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	def, err := s.toDefinition(input)
	if err != nil {
		return nil, err
	}
	created := strings.TrimSpace(input.ID) == ""

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("begin", err)
	}
	defer tx.Rollback()

	if def.Tier.Fixed() && def.Active {
		if err := lockTier(ctx, tx, def.Tier); err != nil {
			return nil, errors.NewQueryExecutionFailedError("catalog_lock", err)
		}
		existingID, err := findCurrentConflict(ctx, tx, def.Tier, def.ID, def.UpdatedAt)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("catalog_conflict", err)
		}
		if existingID != "" {
			return nil, errors.NewDuplicateActiveTierError(string(def.Tier), existingID)
		}
	}

	if created {
		if err := insertDefinition(ctx, tx, def); err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
	} else {
		found, err := updateDefinition(ctx, tx, def)
		if err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		if !found {
			return nil, errors.NewNotFoundError("catalog definition", def.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("Catalog definition saved", map[string]interface{}{
		"catalogId": def.ID,
		"tier":      string(def.Tier),
		"created":   created,
		"active":    def.Active,
	})

	return &Output{
		CatalogID: def.ID,
		Created:   created,
		Tier:      string(def.Tier),
		Active:    def.Active,
	}, nil
}

func (s *Service) toDefinition(input *Input) (models.CatalogDefinition, error) {
	tier, err := models.ParseTier(input.Tier)
	if err != nil {
		return models.CatalogDefinition{}, err
	}
	validUntil, err := models.ParseWireDate(input.ValidUntil)
	if err != nil {
		return models.CatalogDefinition{}, errors.NewValidationError("valid_until", err.Error())
	}

	if tier == models.TierPromo {
		err := membership.ValidatePromo(membership.PromoFields{
			Price:          input.Price,
			CoverageAmount: input.Coverage,
			NoExpiration:   input.NoExpiration,
			ValidUntil:     validUntil,
		})
		if err != nil {
			return models.CatalogDefinition{}, err
		}
	}

	now := s.clock()
	def := models.CatalogDefinition{
		ID:           strings.TrimSpace(input.ID),
		Tier:         tier,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Price:        input.Price,
		Coverage:     input.Coverage,
		NoExpiration: input.NoExpiration,
		ValidUntil:   validUntil,
		Active:       input.Active == nil || *input.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	return def, nil
}
