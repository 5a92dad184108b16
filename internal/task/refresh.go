package task

import (
	"context"
	"sync"
	"time"
)

// RefreshFunc performs one refresh pass.
type RefreshFunc func(context.Context)

// Scheduler drives a periodic refresh with support for immediate triggers.
// The board is poll-based, so every data surface hangs off one of these.
type Scheduler struct {
	interval     time.Duration
	refresh      RefreshFunc
	trigger      chan struct{}
	controlMutex sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
}

const fallbackRefreshInterval = time.Minute

// NewScheduler constructs a scheduler that invokes refresh every interval and
// on every Trigger call.
func NewScheduler(interval time.Duration, refresh RefreshFunc) *Scheduler {
	if interval <= 0 {
		interval = fallbackRefreshInterval
	}
	return &Scheduler{
		interval: interval,
		refresh:  refresh,
		trigger:  make(chan struct{}, 1),
	}
}

// Start launches the refresh loop. Starting an already running scheduler is a
// no-op.
func (scheduler *Scheduler) Start(ctx context.Context) {
	if scheduler == nil || scheduler.refresh == nil {
		return
	}
	scheduler.controlMutex.Lock()
	if scheduler.cancel != nil {
		scheduler.controlMutex.Unlock()
		return
	}
	runtimeCtx, cancel := context.WithCancel(ctx)
	scheduler.cancel = cancel
	done := make(chan struct{})
	scheduler.done = done
	scheduler.controlMutex.Unlock()

	go scheduler.loop(runtimeCtx, done)
}

// Trigger requests an immediate refresh pass. Coalesces when one is pending.
func (scheduler *Scheduler) Trigger() {
	if scheduler == nil {
		return
	}
	select {
	case scheduler.trigger <- struct{}{}:
	default:
	}
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (scheduler *Scheduler) Stop() {
	if scheduler == nil {
		return
	}
	scheduler.controlMutex.Lock()
	cancel := scheduler.cancel
	done := scheduler.done
	scheduler.cancel = nil
	scheduler.done = nil
	scheduler.controlMutex.Unlock()
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (scheduler *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(scheduler.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-scheduler.trigger:
			scheduler.refresh(ctx)
		case <-ticker.C:
			scheduler.refresh(ctx)
		}
	}
}
