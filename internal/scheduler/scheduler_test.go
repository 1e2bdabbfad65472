package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewise/journal/pkg/config"
	"github.com/tradewise/journal/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int
	runs     int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(_ context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	s := New(log)
	s.retryDelay = 0
	return s
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&stubJob{name: "sweep", schedule: "@hourly"})
	require.NoError(t, err)

	err = s.AddJob(&stubJob{name: "sweep", schedule: "@daily"})
	assert.Error(t, err)
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob(&stubJob{name: "broken", schedule: "not a cron expr"})
	assert.Error(t, err)
}

func TestRunJobUnknown(t *testing.T) {
	s := newTestScheduler()

	err := s.RunJob("missing")
	assert.Error(t, err)
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", schedule: "@hourly", failures: 2}

	require.NoError(t, s.AddJob(job))
	s.runJob(job)

	assert.Equal(t, 3, job.runs)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
}

func TestRunJobExhaustsRetries(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "doomed", schedule: "@hourly", failures: 100}

	require.NoError(t, s.AddJob(job))
	s.runJob(job)

	assert.Equal(t, s.maxRetries+1, job.runs)

	history, err := s.GetJobHistory("doomed")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Equal(t, "transient failure", history.Results[0].Error)
}

func TestGetJobStats(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "sweep", schedule: "@hourly"}

	require.NoError(t, s.AddJob(job))
	s.runJob(job)
	s.runJob(job)

	stats := s.GetJobStats()
	require.Contains(t, stats, "sweep")

	assert.Equal(t, 2, stats["sweep"].TotalRuns)
	assert.Equal(t, 2, stats["sweep"].SuccessCount)
	assert.Equal(t, 1.0, stats["sweep"].SuccessRate)
	assert.NotNil(t, stats["sweep"].LastRun)
}

func TestJobHistoryCap(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "sweep", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, 100)
	assert.Equal(t, 0.5, h.GetSuccessRate())
}
