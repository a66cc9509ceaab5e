package membership

import (
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/models"
)

// EvaluateInput is the JSON form of a Request, shared by the job worker and the
// HTTP API.
type EvaluateInput struct {
	CustomerID    string      `json:"customerId"`
	Tier          string      `json:"tier"`
	PaymentMethod string      `json:"paymentMethod"`
	Promo         *PromoInput `json:"promo,omitempty"`
}

// PromoInput carries Promo terms. ConsumableAmount is accepted as an alias of
// CoverageAmount.
type PromoInput struct {
	Price            float64  `json:"price"`
	CoverageAmount   *float64 `json:"coverageAmount,omitempty"`
	ConsumableAmount *float64 `json:"consumableAmount,omitempty"`
	NoExpiration     bool     `json:"noExpiration"`
	ValidUntil       string   `json:"validUntil,omitempty"`
}

// ToRequest converts the input, parsing validUntil.
func (in EvaluateInput) ToRequest() (Request, error) {
	req := Request{
		CustomerID:    in.CustomerID,
		Tier:          in.Tier,
		PaymentMethod: in.PaymentMethod,
	}
	if in.Promo == nil {
		return req, nil
	}

	promo := &PromoFields{
		Price:        in.Promo.Price,
		NoExpiration: in.Promo.NoExpiration,
	}
	switch {
	case in.Promo.CoverageAmount != nil:
		promo.CoverageAmount = *in.Promo.CoverageAmount
	case in.Promo.ConsumableAmount != nil:
		promo.CoverageAmount = *in.Promo.ConsumableAmount
	}
	validUntil, err := models.ParseWireDate(in.Promo.ValidUntil)
	if err != nil {
		return Request{}, errors.NewValidationError("valid_until", err.Error())
	}
	promo.ValidUntil = validUntil
	req.Promo = promo
	return req, nil
}

// EvaluateOutput is the JSON form of a LifecycleResult.
type EvaluateOutput struct {
	MembershipID string      `json:"membershipId"`
	CustomerID   string      `json:"customerId"`
	Action       string      `json:"action"`
	Tier         string      `json:"tier"`
	Coverage     float64     `json:"coverage"`
	Price        float64     `json:"price"`
	ExpireDate   interface{} `json:"expireDate"`
	NoExpiration bool        `json:"noExpiration"`
	LogRecorded  bool        `json:"logRecorded"`
}

func NewEvaluateOutput(res *LifecycleResult) EvaluateOutput {
	return EvaluateOutput{
		MembershipID: res.Record.ID,
		CustomerID:   res.Record.CustomerID,
		Action:       res.Action,
		Tier:         string(res.Record.Tier),
		Coverage:     res.Record.Coverage,
		Price:        res.Record.Price,
		ExpireDate:   models.FormatWireDate(res.Record.ExpireDate),
		NoExpiration: res.Record.NoExpiration,
		LogRecorded:  res.LogRecorded,
	}
}

// CurrentOutput describes a customer's current membership.
type CurrentOutput struct {
	CustomerID    string      `json:"customerId"`
	HasMembership bool        `json:"hasMembership"`
	IsActive      bool        `json:"isActive"`
	MembershipID  string      `json:"membershipId,omitempty"`
	Tier          string      `json:"tier,omitempty"`
	Coverage      float64     `json:"coverage"`
	ExpireDate    interface{} `json:"expireDate"`
	NoExpiration  bool        `json:"noExpiration"`
}

// NewCurrentOutput describes rec as of now; a nil rec means no membership.
func NewCurrentOutput(customerID string, rec *models.MembershipRecord, now time.Time) CurrentOutput {
	out := CurrentOutput{CustomerID: customerID}
	if rec == nil {
		return out
	}
	out.HasMembership = true
	out.IsActive = rec.IsActive(now)
	out.MembershipID = rec.ID
	out.Tier = string(rec.Tier)
	out.Coverage = rec.Coverage
	out.ExpireDate = models.FormatWireDate(rec.ExpireDate)
	out.NoExpiration = rec.NoExpiration
	return out
}
