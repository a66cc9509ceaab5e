package api

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clinic-workers/internal/common/errors"
	"clinic-workers/internal/common/logger"
	"clinic-workers/internal/membership"
	"clinic-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Evaluate(ctx context.Context, req membership.Request) (*membership.LifecycleResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*membership.LifecycleResult), args.Error(1)
}

func (m *MockMembershipService) CurrentMembership(ctx context.Context, customerID string) (*models.MembershipRecord, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MembershipRecord), args.Error(1)
}

func (m *MockMembershipService) Now() time.Time {
	return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
}

func createTestServer(t *testing.T, svc MembershipService, checks map[string]ReadinessCheck) *httptest.Server {
	t.Helper()
	h := NewHandler(svc, checks, logger.NewTestLogger(t))
	srv := httptest.NewServer(NewRouter(h, RouterOptions{
		AllowedOrigins: []string{"https://clinic.example.com"},
		MetricsHandler: http.NotFoundHandler(),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func TestHealth(t *testing.T) {
	srv := createTestServer(t, new(MockMembershipService), nil)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReady(t *testing.T) {
	srv := createTestServer(t, new(MockMembershipService), map[string]ReadinessCheck{
		"redis":  func(ctx context.Context) error { return nil },
		"zeebe":  func(ctx context.Context) error { return stderrors.New("unavailable") },
		"clinic": func(ctx context.Context) error { return nil },
	})
	resp, err := http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestEvaluate_Created(t *testing.T) {
	svc := new(MockMembershipService)
	expire := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	svc.On("Evaluate", mock.Anything, membership.Request{CustomerID: "7", Tier: "basic", PaymentMethod: "Cash"}).
		Return(&membership.LifecycleResult{
			Record: models.MembershipRecord{
				ID: "m-1", CustomerID: "7", Tier: models.TierBasic, Coverage: 5000, Price: 3000,
				ExpireDate: &expire, NoExpiration: true,
			},
			Action:      models.ActionNewMember,
			LogRecorded: true,
		}, nil)

	srv := createTestServer(t, svc, nil)
	resp, body := post(t, srv.URL+"/v1/memberships/evaluate", `{"customerId":"7","tier":"basic","paymentMethod":"Cash"}`)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{
		"membershipId":"m-1","customerId":"7","action":"new member","tier":"basic",
		"coverage":5000,"price":3000,"expireDate":"2025-04-10","noExpiration":true,"logRecorded":true
	}`, body)
	svc.AssertExpectations(t)
}

func TestEvaluate_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", errors.NewValidationError("consumable_amount", "must be > 0"), http.StatusBadRequest, "MEMBERSHIP_VALIDATION_FAILED"},
		{"invalid tier", errors.NewInvalidTierError("gold"), http.StatusBadRequest, "INVALID_TIER"},
		{"not found", errors.NewNotFoundError("customer", "7"), http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{"remote", errors.NewRemoteError("/members", 500, "boom"), http.StatusBadGateway, "REMOTE_STORE_ERROR"},
		{"network", errors.NewNetworkError("/members", stderrors.New("dial tcp: refused")), http.StatusBadGateway, "NETWORK_ERROR"},
		{"unexpected", stderrors.New("nil map"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockMembershipService)
			svc.On("Evaluate", mock.Anything, mock.Anything).Return(nil, tt.err)

			srv := createTestServer(t, svc, nil)
			resp, body := post(t, srv.URL+"/v1/memberships/evaluate", `{"customerId":"7","tier":"basic"}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, body, tt.wantCode)
		})
	}
}

func TestEvaluate_RejectsMalformedBody(t *testing.T) {
	svc := new(MockMembershipService)
	srv := createTestServer(t, svc, nil)

	resp, body := post(t, srv.URL+"/v1/memberships/evaluate", `{"customerId":"7","tier":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "INPUT_PARSING_FAILED")

	resp, _ = post(t, srv.URL+"/v1/memberships/evaluate", `{"customerId":"7","tier":"basic","discount":10}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = post(t, srv.URL+"/v1/memberships/evaluate",
		`{"customerId":"7","tier":"promo","promo":{"price":500,"coverageAmount":2000,"validUntil":"tomorrow"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, `"field":"valid_until"`)

	svc.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}

func TestCurrentMembership(t *testing.T) {
	svc := new(MockMembershipService)
	svc.On("CurrentMembership", mock.Anything, "7").
		Return(&models.MembershipRecord{ID: "m-1", Tier: models.TierPro, Coverage: 20000, NoExpiration: true}, nil)
	svc.On("CurrentMembership", mock.Anything, "8").Return(nil, nil)

	srv := createTestServer(t, svc, nil)

	resp, err := http.Get(srv.URL + "/v1/customers/7/membership")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp8, err := http.Get(srv.URL + "/v1/customers/8/membership")
	require.NoError(t, err)
	defer resp8.Body.Close()
	raw, err := io.ReadAll(resp8.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"customerId":"8","hasMembership":false,"isActive":false,"coverage":0,"expireDate":null,"noExpiration":false}`, string(raw))
}

func TestCORSPreflight(t *testing.T) {
	srv := createTestServer(t, new(MockMembershipService), nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/memberships/evaluate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://clinic.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://clinic.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORS_NoOriginsConfigured(t *testing.T) {
	h := NewHandler(new(MockMembershipService), nil, logger.NewTestLogger(t))
	srv := httptest.NewServer(NewRouter(h, RouterOptions{MetricsHandler: http.NotFoundHandler()}))
	t.Cleanup(srv.Close)

	for _, origin := range []string{"https://clinic.example.com", "https://attacker.example"} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/memberships/evaluate", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", "POST")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"), origin)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Credentials"), origin)
	}
}

func TestCORSPreflight_UnlistedOrigin(t *testing.T) {
	srv := createTestServer(t, new(MockMembershipService), nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/memberships/evaluate", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://attacker.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor_Duplicate(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(errors.ErrCodeDuplicateActiveTier))
}
