package validatemembership

import (
	"context"
	"time"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
	"clinic-workers/internal/models"
)

type Input struct {
	CustomerID string `json:"customerId"`
}

// Output reports the customer's current membership as of the service clock.
type Output = membership.CurrentOutput

// MembershipReader is the read side of membership.Service.
type MembershipReader interface {
	CurrentMembership(ctx context.Context, customerID string) (*models.MembershipRecord, error)
	Now() time.Time
}

type ServiceDependencies struct {
	Reader MembershipReader
	Logger logger.Logger
}
