// Package membership holds the membership lifecycle rules: the tier catalog, the
// create/renew evaluator and the service that persists its decisions.
package membership

import (
	"fmt"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/models"
)

// Rates are the fixed price and coverage of a catalog tier.
type Rates struct {
	Price    float64
	Coverage float64
}

var fixedRates = map[models.Tier]Rates{
	models.TierBasic: {Price: 3000, Coverage: 5000},
	models.TierPro:   {Price: 6000, Coverage: 10000},
}

// RatesFor returns the fixed rates of Basic and Pro. Promo has none; the caller
// supplies price and coverage.
func RatesFor(tier models.Tier) (Rates, bool) {
	r, ok := fixedRates[tier]
	return r, ok
}

// ExpirationPolicy describes how a tier's expire date and coverage are derived.
type ExpirationPolicy struct {
	// WindowMonths is added to the start of the registration day. Zero for Promo.
	WindowMonths int
	// NoExpirationFlag is the no_expiration value persisted for fixed tiers. It is
	// true even though an expire date is also stored.
	NoExpirationFlag bool
	// Cumulative means a renewal adds the catalog coverage to the prior balance.
	Cumulative bool
	// CallerSupplied means expiry comes from PromoFields.
	CallerSupplied bool
}

// ExpirationPolicyFor returns the policy of tier.
func ExpirationPolicyFor(tier models.Tier) ExpirationPolicy {
	switch tier {
	case models.TierBasic:
		return ExpirationPolicy{WindowMonths: 1, NoExpirationFlag: true, Cumulative: true}
	case models.TierPro:
		return ExpirationPolicy{WindowMonths: 2, NoExpirationFlag: true, Cumulative: true}
	default:
		return ExpirationPolicy{CallerSupplied: true}
	}
}

// ExpireDate applies a fixed window to the start of now's day in loc. Month
// overflow follows time.AddDate (Jan 31 + 1 month is Mar 3 or Mar 2).
func (p ExpirationPolicy) ExpireDate(now time.Time, loc *time.Location) *time.Time {
	if p.CallerSupplied || p.WindowMonths == 0 {
		return nil
	}
	d := StartOfDay(now, loc).AddDate(0, p.WindowMonths, 0)
	return &d
}

// StartOfDay truncates now to midnight in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// PromoFields are the caller-supplied terms of a Promo membership.
type PromoFields struct {
	Price          float64
	CoverageAmount float64
	NoExpiration   bool
	ValidUntil     *time.Time
}

// ValidatePromo reports the first violated constraint, checked in the order
// price, consumable_amount, valid_until.
func ValidatePromo(f PromoFields) error {
	if f.Price <= 0 {
		return errors.NewValidationError("price", fmt.Sprintf("price must be greater than 0, got %v", f.Price))
	}
	if f.CoverageAmount <= 0 {
		return errors.NewValidationError("consumable_amount",
			fmt.Sprintf("consumable amount must be greater than 0, got %v", f.CoverageAmount))
	}
	if !f.NoExpiration && f.ValidUntil == nil {
		return errors.NewValidationError("valid_until", "valid until date is required unless no expiration is set")
	}
	return nil
}
