package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testRefreshInterval = 25 * time.Millisecond
	testWaitTimeout     = 2 * time.Second
	testWaitTick        = 5 * time.Millisecond
)

func TestSchedulerRunsPeriodically(testingT *testing.T) {
	var passCount atomic.Int64
	scheduler := NewScheduler(testRefreshInterval, func(context.Context) {
		passCount.Add(1)
	})

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	require.Eventually(testingT, func() bool {
		return passCount.Load() >= 2
	}, testWaitTimeout, testWaitTick)
}

func TestSchedulerTriggerRunsImmediately(testingT *testing.T) {
	var passCount atomic.Int64
	scheduler := NewScheduler(time.Hour, func(context.Context) {
		passCount.Add(1)
	})

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	scheduler.Trigger()

	require.Eventually(testingT, func() bool {
		return passCount.Load() == 1
	}, testWaitTimeout, testWaitTick)
}

func TestSchedulerStopWaitsForLoopExit(testingT *testing.T) {
	var passCount atomic.Int64
	scheduler := NewScheduler(testRefreshInterval, func(context.Context) {
		passCount.Add(1)
	})

	scheduler.Start(context.Background())
	require.Eventually(testingT, func() bool {
		return passCount.Load() >= 1
	}, testWaitTimeout, testWaitTick)

	scheduler.Stop()
	settledCount := passCount.Load()
	time.Sleep(3 * testRefreshInterval)
	require.Equal(testingT, settledCount, passCount.Load())
}

func TestSchedulerStartIsIdempotent(testingT *testing.T) {
	var passCount atomic.Int64
	scheduler := NewScheduler(time.Hour, func(context.Context) {
		passCount.Add(1)
	})

	scheduler.Start(context.Background())
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	scheduler.Trigger()
	require.Eventually(testingT, func() bool {
		return passCount.Load() == 1
	}, testWaitTimeout, testWaitTick)

	// A single loop is draining the trigger channel.
	time.Sleep(4 * testWaitTick)
	require.Equal(testingT, int64(1), passCount.Load())
}

func TestSchedulerNilSafety(_ *testing.T) {
	var scheduler *Scheduler
	scheduler.Start(context.Background())
	scheduler.Trigger()
	scheduler.Stop()

	withoutRefresh := NewScheduler(testRefreshInterval, nil)
	withoutRefresh.Start(context.Background())
	withoutRefresh.Stop()
}
