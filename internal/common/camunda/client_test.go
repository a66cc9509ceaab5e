package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"clinic-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	}, "complete job")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetry_DoesNotRetryPermanentErrors(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("rpc error: code = NotFound desc = job not found")
	}, "complete job")

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errors.IsNotFound(err))
}

func TestRetry_GivesUpAsNetworkError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastRetry(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("context deadline exceeded")
	}, "topology")

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, errors.IsNetwork(err))
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	_, err := Retry(ctx, cfg, func(context.Context) (interface{}, error) {
		cancel()
		return nil, stderrors.New("unavailable")
	}, "complete job")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError_Default(t *testing.T) {
	err := mapZeebeError(stderrors.New("invalid argument"), "deploy", 0)
	assert.True(t, errors.IsRemote(err))
}
