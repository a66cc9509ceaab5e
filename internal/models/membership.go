// internal/models/membership.go
package models

import (
	"strings"
	"time"

	"clinic-workers/internal/common/errors"
)

// Tier is the membership product category.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
	TierPromo Tier = "promo"
)

// ParseTier accepts any casing of basic/pro/promo.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierBasic:
		return TierBasic, nil
	case TierPro:
		return TierPro, nil
	case TierPromo:
		return TierPromo, nil
	default:
		return "", errors.NewInvalidTierError(s)
	}
}

func (t Tier) String() string { return string(t) }

// Fixed reports whether the catalog fixes price and coverage for the tier.
func (t Tier) Fixed() bool { return t == TierBasic || t == TierPro }

// Lifecycle actions as recorded in the activity log.
const (
	ActionNewMember = "new member"
	ActionRenewed   = "renewed"
)

// Actions as sent to POST /members.
const (
	WireActionNew   = "new member"
	WireActionRenew = "renew"
)

// MembershipRecord is one membership instance held by a customer. Records are
// append-only: a renewal creates a new record.
type MembershipRecord struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customerId"`
	Tier           Tier       `json:"tier"`
	Coverage       float64    `json:"coverage"`
	Price          float64    `json:"price"`
	DateRegistered time.Time  `json:"dateRegistered"`
	ExpireDate     *time.Time `json:"expireDate"`
	NoExpiration   bool       `json:"noExpiration"`
	PaymentMethod  string     `json:"paymentMethod,omitempty"`
}

// IsActive reports whether the record is not expired at now.
func (m MembershipRecord) IsActive(now time.Time) bool {
	return m.ExpireDate == nil || m.ExpireDate.After(now)
}

// ActivityLogEntry is the immutable audit row written once per lifecycle action.
type ActivityLogEntry struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	MembershipID  string    `json:"membershipId"`
	Action        string    `json:"action"`
	Tier          Tier      `json:"tier"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Timestamp     time.Time `json:"timestamp"`
}

// Customer carries what the membership flow and receipts need.
type Customer struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Archived  bool   `json:"archived"`
}

// FullName joins first and last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CatalogDefinition is an editable membership product row.
type CatalogDefinition struct {
	ID           string     `json:"id"`
	Tier         Tier       `json:"tier"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	Coverage     float64    `json:"coverage"`
	NoExpiration bool       `json:"noExpiration"`
	ValidUntil   *time.Time `json:"validUntil"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsCurrent reports whether an active definition still applies at now.
func (d CatalogDefinition) IsCurrent(now time.Time) bool {
	if !d.Active {
		return false
	}
	return d.NoExpiration || d.ValidUntil == nil || d.ValidUntil.After(now)
}
