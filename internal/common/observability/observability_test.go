package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs, err := New("clinic-workers-test",
		WithRegisterer(promclient.NewRegistry()),
		WithSpanProcessor(recorder),
		WithoutGlobal(),
	)
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	_, span := obs.StartSpan(context.Background(), "membership.evaluate", attribute.String("tier", "basic"))
	EndSpan(span, errors.New("remote store rejected /members"))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "membership.evaluate", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("tier", "basic"))
}

func TestRecordJobMetrics_ExportedToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs, err := New("clinic-workers-test", WithRegisterer(reg), WithoutGlobal())
	require.NoError(t, err)
	defer obs.Shutdown(context.Background())

	ctx := context.Background()
	obs.RecordJobProcessed(ctx, "membership.evaluate", "completed")
	obs.RecordJobDuration(ctx, "membership.evaluate", 25*time.Millisecond, "completed")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs.processed_total")
	assert.Contains(t, joined, "jobs.duration_milliseconds")
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var obs *Observability
	_, span := obs.StartSpan(context.Background(), "noop")
	EndSpan(span, nil)
	obs.RecordJobProcessed(context.Background(), "x", "completed")
	assert.NoError(t, obs.Shutdown(context.Background()))
}
