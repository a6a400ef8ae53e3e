package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gestao/internal/snapshots"
	"gestao/internal/testsupport"
	"gestao/internal/timeframe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJob(t *testing.T) {
	store := snapshots.NewStore(testsupport.SetupTestDB(t))
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, timeframe.MustRange("2024-03-01", "2024-03-01"), testsupport.KpiResult(1, 1, 1)))

	job := NewCleanupJob(store, testsupport.GetLogger(), 24*time.Hour)
	require.NoError(t, job.Run(ctx))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "fresh snapshot is kept")

	job.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	require.NoError(t, job.Run(ctx))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCleanupJobDisabled(t *testing.T) {
	store := snapshots.NewStore(testsupport.SetupTestDB(t))
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, timeframe.MustRange("2024-03-01", "2024-03-01"), testsupport.KpiResult(1, 1, 1)))

	job := NewCleanupJob(store, testsupport.GetLogger(), 0)
	job.now = func() time.Time { return time.Now().Add(365 * 24 * time.Hour) }
	require.NoError(t, job.Run(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestWarmJob(t *testing.T) {
	clock := testsupport.FixedClock(t, "2024-03-15")
	fake := testsupport.NewFakeGateway()
	boom := errors.New("boom")
	yesterday := timeframe.MustRange("2024-03-14", "2024-03-14")
	fake.Respond(yesterday, nil, boom)

	err := NewWarmJob(fake, clock, testsupport.GetLogger()).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, fake.Calls(), len(snapshots.WarmRanges(clock.Today())))
	assert.Equal(t, 1, fake.CallCount(yesterday))
}

type countingJob struct {
	runs  atomic.Int32
	block chan struct{}
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestSchedulerRunsJobsImmediatelyAndStops(t *testing.T) {
	cleanup := &countingJob{}
	warm := &countingJob{}
	s := NewScheduler(cleanup, time.Hour, warm, time.Hour, testsupport.GetLogger())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	testsupport.Eventually(t, time.Second, func() bool {
		return cleanup.runs.Load() == 1 || warm.runs.Load() == 1
	})

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestSchedulerSkipsOverlappingRuns(t *testing.T) {
	slow := &countingJob{block: make(chan struct{})}
	s := NewScheduler(slow, 5*time.Millisecond, nil, 0, testsupport.GetLogger())

	require.NoError(t, s.Start())
	testsupport.Eventually(t, time.Second, func() bool { return slow.runs.Load() == 1 })
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), slow.runs.Load(), "a running job is never started again concurrently")

	s.Stop()
}
