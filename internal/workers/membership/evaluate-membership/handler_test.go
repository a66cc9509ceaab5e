package evaluatemembership

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinic-workers/internal/common/config"
	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
	"clinic-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Evaluate(ctx context.Context, req membership.Request) (*membership.LifecycleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.LifecycleResult), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "membership-renewal",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_EvaluateMembership",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createTestHandler(t *testing.T, lifecycle Lifecycle) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Lifecycle:    lifecycle,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

func createResult(action string, coverage float64) *membership.LifecycleResult {
	expire := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	return &membership.LifecycleResult{
		Record: models.MembershipRecord{
			ID:           "981",
			CustomerID:   "7",
			Tier:         models.TierBasic,
			Coverage:     coverage,
			Price:        3000,
			ExpireDate:   &expire,
			NoExpiration: true,
		},
		Action:      action,
		LogRecorded: true,
	}
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 5}, Lifecycle: new(MockLifecycle)})
	assert.ErrorContains(t, err, "timeout must be positive")

	_, err = NewHandler(HandlerOptions{CustomConfig: DefaultConfig()})
	assert.ErrorContains(t, err, "requires a membership lifecycle")

	h := createTestHandler(t, new(MockLifecycle))
	assert.Equal(t, "membership.evaluate", h.GetTaskType())
	assert.True(t, h.IsEnabled())
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{Workers: map[string]config.WorkerConfig{
		WorkerName: {Enabled: false, MaxJobsActive: 12, Timeout: 4500},
	}}

	cfg := createConfigFromAppConfig(appConfig, nil)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 12, cfg.MaxJobsActive)
	assert.Equal(t, 4500*time.Millisecond, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(&config.Config{}, nil))
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, new(MockLifecycle))

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		wantField string
		check     func(t *testing.T, in *Input)
	}{
		{
			name: "basic renewal with unrelated process variables",
			variables: map[string]interface{}{
				"customerId":    "7",
				"tier":          "basic",
				"paymentMethod": "GCash",
				"approvedBy":    "front-desk",
			},
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, "7", in.CustomerID)
				assert.Equal(t, "GCash", in.PaymentMethod)
				assert.Nil(t, in.Promo)
			},
		},
		{
			name: "promo terms",
			variables: map[string]interface{}{
				"customerId": "7",
				"tier":       "promo",
				"promo": map[string]interface{}{
					"price":          500,
					"coverageAmount": 2000,
					"validUntil":     "2025-06-30",
				},
			},
			check: func(t *testing.T, in *Input) {
				require.NotNil(t, in.Promo)
				assert.Equal(t, 500.0, in.Promo.Price)
				assert.Equal(t, "2025-06-30", in.Promo.ValidUntil)
			},
		},
		{
			name:      "numeric customer id",
			variables: map[string]interface{}{"customerId": 7, "tier": "basic"},
			wantErr:   true,
			wantField: "customerId",
		},
		{
			name: "string promo price",
			variables: map[string]interface{}{
				"customerId": "7",
				"tier":       "promo",
				"promo":      map[string]interface{}{"price": "500"},
			},
			wantErr:   true,
			wantField: "promo.price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidation(err))
				assert.Equal(t, tt.wantField, errors.FieldOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	lifecycle := new(MockLifecycle)
	lifecycle.On("Evaluate", mock.Anything, membership.Request{CustomerID: "7", Tier: "basic", PaymentMethod: "Cash"}).
		Return(createResult(models.ActionRenewed, 11000), nil)

	h := createTestHandler(t, lifecycle)
	out, err := h.Execute(context.Background(), &Input{CustomerID: "7", Tier: "basic", PaymentMethod: "Cash"})
	require.NoError(t, err)

	assert.Equal(t, "981", out.MembershipID)
	assert.Equal(t, "renewed", out.Action)
	assert.Equal(t, 11000.0, out.Coverage)
	assert.Equal(t, "2025-04-10", out.ExpireDate)
	assert.True(t, out.LogRecorded)
	lifecycle.AssertExpectations(t)
}

func TestHandler_Execute_PromoRequest(t *testing.T) {
	lifecycle := new(MockLifecycle)
	lifecycle.On("Evaluate", mock.Anything, mock.MatchedBy(func(req membership.Request) bool {
		return req.Promo != nil && req.Promo.CoverageAmount == 2000 && req.Promo.NoExpiration
	})).Return(createResult(models.ActionNewMember, 2000), nil)

	cov := 2000.0
	h := createTestHandler(t, lifecycle)
	_, err := h.Execute(context.Background(), &Input{
		CustomerID: "7",
		Tier:       "promo",
		Promo:      &membership.PromoInput{Price: 500, ConsumableAmount: &cov, NoExpiration: true},
	})
	require.NoError(t, err)
	lifecycle.AssertExpectations(t)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{"validation", errors.NewValidationError("consumable_amount", "must be greater than zero"), errors.ErrCodeValidationFailed},
		{"unknown customer", errors.NewNotFoundError("customer", "7"), errors.ErrCodeNotFound},
		{"store down", errors.NewRemoteError("/members", 500, "boom"), errors.ErrCodeRemoteStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lifecycle := new(MockLifecycle)
			lifecycle.On("Evaluate", mock.Anything, mock.Anything).Return(nil, tt.err)

			_, err := createTestHandler(t, lifecycle).Execute(context.Background(), &Input{CustomerID: "7", Tier: "basic"})
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Zero(t, errors.ConvertToBPMNError(errors.Normalize(err)).Retries)
		})
	}
}

func TestHandler_Execute_BadValidUntil(t *testing.T) {
	lifecycle := new(MockLifecycle)
	h := createTestHandler(t, lifecycle)

	_, err := h.Execute(context.Background(), &Input{
		CustomerID: "7",
		Tier:       "promo",
		Promo:      &membership.PromoInput{Price: 500, ValidUntil: "end of june"},
	})
	assert.Equal(t, "valid_until", errors.FieldOf(err))
	lifecycle.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestOutput_WorkflowVariables(t *testing.T) {
	out := membership.NewEvaluateOutput(createResult(models.ActionNewMember, 5000))
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &vars))
	for _, key := range []string{"membershipId", "action", "tier", "coverage", "price", "expireDate", "noExpiration", "logRecorded"} {
		assert.Contains(t, vars, key)
	}
}
