package models

import (
	"testing"
	"time"

	"clinic-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"basic", TierBasic},
		{"Basic", TierBasic},
		{" PRO ", TierPro},
		{"Promo", TierPromo},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTier("gold")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidTier(err))
}

func TestMembershipRecord_IsActive(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, MembershipRecord{}.IsActive(now))
	assert.True(t, MembershipRecord{ExpireDate: &future}.IsActive(now))
	assert.False(t, MembershipRecord{ExpireDate: &past}.IsActive(now))
	assert.False(t, MembershipRecord{ExpireDate: &now}.IsActive(now))
}

func TestCatalogDefinition_IsCurrent(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	assert.False(t, CatalogDefinition{Active: false, NoExpiration: true}.IsCurrent(now))
	assert.True(t, CatalogDefinition{Active: true, NoExpiration: true, ValidUntil: &past}.IsCurrent(now))
	assert.True(t, CatalogDefinition{Active: true}.IsCurrent(now))
	assert.True(t, CatalogDefinition{Active: true, ValidUntil: &future}.IsCurrent(now))
	assert.False(t, CatalogDefinition{Active: true, ValidUntil: &past}.IsCurrent(now))
}

func TestCustomer_FullName(t *testing.T) {
	assert.Equal(t, "Maria Santos", Customer{FirstName: "Maria", LastName: "Santos"}.FullName())
	assert.Equal(t, "Maria", Customer{FirstName: "Maria"}.FullName())
}
