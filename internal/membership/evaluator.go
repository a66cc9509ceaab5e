package membership

import (
	"sort"
	"strings"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/models"

	"github.com/google/uuid"
)

// Request asks for a membership of Tier for CustomerID.
type Request struct {
	CustomerID    string
	Tier          string
	PaymentMethod string
	Promo         *PromoFields
}

// LifecycleResult is the outcome of one create or renew decision.
type LifecycleResult struct {
	Record   models.MembershipRecord
	LogEntry models.ActivityLogEntry
	// Action is the activity log action: "new member" or "renewed".
	Action string
	// WireAction is the action sent to POST /members: "new member" or "renew".
	WireAction string
	// PriorID is the record being renewed, empty for a new member.
	PriorID string
	// LogRecorded is false when the activity log append failed.
	LogRecorded bool
}

// Evaluator decides what record a create or renew request produces. It is pure:
// the prior record and the clock are inputs.
type Evaluator struct {
	location *time.Location
	newID    func() string
}

// NewEvaluator builds an evaluator computing expiry days in loc (UTC when nil).
func NewEvaluator(loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return &Evaluator{
		location: loc,
		newID:    func() string { return uuid.New().String() },
	}
}

// Decide computes the record and log entry for req given the customer's current
// record. A nil prior means the customer has no membership yet. An expired prior
// still takes the renew branch.
func (e *Evaluator) Decide(prior *models.MembershipRecord, req Request, now time.Time) (*LifecycleResult, error) {
	tier, err := Validate(req)
	if err != nil {
		return nil, err
	}
	customerID := strings.TrimSpace(req.CustomerID)

	var (
		price, coverageDelta float64
		expireDate           *time.Time
		noExpiration         bool
	)

	policy := ExpirationPolicyFor(tier)
	if rates, ok := RatesFor(tier); ok {
		price = rates.Price
		coverageDelta = rates.Coverage
		expireDate = policy.ExpireDate(now, e.location)
		noExpiration = policy.NoExpirationFlag
	} else {
		price = req.Promo.Price
		coverageDelta = req.Promo.CoverageAmount
		noExpiration = req.Promo.NoExpiration
		if !noExpiration && req.Promo.ValidUntil != nil {
			v := *req.Promo.ValidUntil
			expireDate = &v
		}
	}

	coverage := coverageDelta
	result := &LifecycleResult{
		Action:     models.ActionNewMember,
		WireAction: models.WireActionNew,
	}
	if prior != nil {
		result.Action = models.ActionRenewed
		result.WireAction = models.WireActionRenew
		result.PriorID = prior.ID
		if policy.Cumulative {
			coverage = prior.Coverage + coverageDelta
		}
	}

	recordID := e.newID()
	result.Record = models.MembershipRecord{
		ID:             recordID,
		CustomerID:     customerID,
		Tier:           tier,
		Coverage:       coverage,
		Price:          price,
		DateRegistered: now,
		ExpireDate:     expireDate,
		NoExpiration:   noExpiration,
		PaymentMethod:  req.PaymentMethod,
	}
	result.LogEntry = models.ActivityLogEntry{
		ID:            e.newID(),
		CustomerID:    customerID,
		MembershipID:  recordID,
		Action:        result.Action,
		Tier:          tier,
		Amount:        coverageDelta,
		PaymentMethod: req.PaymentMethod,
		Timestamp:     now,
	}
	return result, nil
}

// Validate checks req without looking at any stored state and returns its tier.
func Validate(req Request) (models.Tier, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return "", errors.NewValidationError("customer_id", "customer id is required")
	}
	tier, err := models.ParseTier(req.Tier)
	if err != nil {
		return "", err
	}
	if tier.Fixed() {
		return tier, nil
	}
	if req.Promo == nil {
		return "", errors.NewValidationError("promo", "promo fields are required for a promo membership")
	}
	if err := ValidatePromo(*req.Promo); err != nil {
		return "", err
	}
	return tier, nil
}

// Latest returns the current record: the most recent by DateRegistered, ties going
// to the later position in records. Nil when records is empty.
func Latest(records []models.MembershipRecord) *models.MembershipRecord {
	if len(records) == 0 {
		return nil
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return records[idx[a]].DateRegistered.Before(records[idx[b]].DateRegistered)
	})
	latest := records[idx[len(idx)-1]]
	return &latest
}
