package membership

import (
	"encoding/json"
	"testing"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateInput_ToRequest(t *testing.T) {
	var in EvaluateInput
	require.NoError(t, json.Unmarshal([]byte(`{
		"customerId": "7",
		"tier": "Promo",
		"paymentMethod": "Cash",
		"promo": {"price": 500, "consumableAmount": 2000, "validUntil": "2025-06-30"}
	}`), &in))

	req, err := in.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, "7", req.CustomerID)
	require.NotNil(t, req.Promo)
	assert.Equal(t, 2000.0, req.Promo.CoverageAmount)
	require.NotNil(t, req.Promo.ValidUntil)
	assert.Equal(t, "2025-06-30", req.Promo.ValidUntil.Format("2006-01-02"))
}

func TestEvaluateInput_CoverageAmountWins(t *testing.T) {
	cov, cons := 3000.0, 1.0
	req, err := EvaluateInput{CustomerID: "7", Tier: "promo", Promo: &PromoInput{
		Price: 500, CoverageAmount: &cov, ConsumableAmount: &cons, NoExpiration: true,
	}}.ToRequest()
	require.NoError(t, err)
	assert.Equal(t, 3000.0, req.Promo.CoverageAmount)
	assert.Nil(t, req.Promo.ValidUntil)
}

func TestEvaluateInput_BadDate(t *testing.T) {
	_, err := EvaluateInput{CustomerID: "7", Tier: "promo", Promo: &PromoInput{ValidUntil: "someday"}}.ToRequest()
	assert.Equal(t, "valid_until", errors.FieldOf(err))
}

func TestNewCurrentOutput(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	lapsed := now.AddDate(0, 0, -1)

	out := NewCurrentOutput("7", &models.MembershipRecord{ID: "m-1", Tier: models.TierBasic, Coverage: 5000, ExpireDate: &lapsed}, now)
	assert.True(t, out.HasMembership)
	assert.False(t, out.IsActive)
	assert.Equal(t, "2025-03-09", out.ExpireDate)

	none := NewCurrentOutput("8", nil, now)
	assert.False(t, none.HasMembership)
	assert.Nil(t, none.ExpireDate)
}
