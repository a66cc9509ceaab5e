package camunda

import (
	"context"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-workers/internal/common/observability"
)

// stubJobClient hands out nil commands; handlers under test only need the call.
type stubJobClient struct {
	worker.JobClient
}

func (stubJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 { return nil }
func (stubJobClient) NewFailJobCommand() commands.FailJobCommandStep1         { return nil }
func (stubJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1   { return nil }

func newTestObservability(t *testing.T) (*observability.Observability, *promclient.Registry) {
	t.Helper()
	reg := promclient.NewRegistry()
	obs, err := observability.New("clinic-workers-test", observability.WithRegisterer(reg), observability.WithoutGlobal())
	require.NoError(t, err)
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })
	return obs, reg
}

// processedByStatus sums jobs.processed_total per status label for taskType.
func processedByStatus(t *testing.T, reg *promclient.Registry, taskType string) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "jobs.processed_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["task_type"] != taskType {
				continue
			}
			out[labels["status"]] += m.GetCounter().GetValue()
		}
	}
	return out
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: "membership.test"}}
}

func TestInstrument_RecordsOutcomePerJob(t *testing.T) {
	obs, reg := newTestObservability(t)

	complete := Instrument("membership.test", func(c worker.JobClient, _ entities.Job) {
		c.NewCompleteJobCommand()
	}, obs)
	fail := Instrument("membership.test", func(c worker.JobClient, _ entities.Job) {
		c.NewFailJobCommand()
	}, obs)
	throw := Instrument("membership.test", func(c worker.JobClient, _ entities.Job) {
		c.NewThrowErrorCommand()
	}, obs)
	silent := Instrument("membership.test", func(worker.JobClient, entities.Job) {}, obs)

	complete(stubJobClient{}, testJob())
	complete(stubJobClient{}, testJob())
	fail(stubJobClient{}, testJob())
	throw(stubJobClient{}, testJob())
	silent(stubJobClient{}, testJob())

	got := processedByStatus(t, reg, "membership.test")
	assert.Equal(t, 2.0, got[StatusCompleted])
	assert.Equal(t, 1.0, got[StatusFailed])
	assert.Equal(t, 1.0, got[StatusErrorThrown])
	assert.Equal(t, 1.0, got[StatusAbandoned])
}

func TestInstrument_RecordsDuration(t *testing.T) {
	obs, reg := newTestObservability(t)

	Instrument("membership.timed", func(c worker.JobClient, _ entities.Job) {
		c.NewCompleteJobCommand()
	}, obs)(stubJobClient{}, testJob())

	families, err := reg.Gather()
	require.NoError(t, err)

	var samples uint64
	for _, mf := range families {
		if mf.GetName() != "jobs.duration_milliseconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			samples += m.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), samples)
}

func TestInstrument_NilObservability(t *testing.T) {
	called := false
	Instrument("membership.nil", func(c worker.JobClient, _ entities.Job) {
		called = true
		c.NewCompleteJobCommand()
	}, nil)(stubJobClient{}, testJob())
	assert.True(t, called)
}
