package evaluatemembership

import (
	"context"

	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
)

// Input is the job variable set: {customerId, tier, paymentMethod, promo?}.
type Input = membership.EvaluateInput

// Output is merged back into the process instance.
type Output = membership.EvaluateOutput

// Lifecycle is the part of membership.Service the worker drives.
type Lifecycle interface {
	Evaluate(ctx context.Context, req membership.Request) (*membership.LifecycleResult, error)
}

type ServiceDependencies struct {
	Lifecycle Lifecycle
	Logger    logger.Logger
}
