package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PausePoll is how often a paused task checks whether it was resumed.
const PausePoll = 100 * time.Millisecond

// Spec describes a task. A task ticks every Interval. With Total > 0 it
// finishes after Total ticks, waits Settle and then calls OnDone. With
// Unbounded set it ticks until stopped.
type Spec struct {
	Total     int
	Unbounded bool
	Interval  time.Duration
	Settle    time.Duration
	// OnTick receives the number of ticks elapsed so far.
	OnTick func(elapsed int)
	OnDone func()
}

// Task is a running countdown. Stop cancels it; callbacks already in
// flight may still run, so receivers must ignore callbacks from a task
// they no longer own.
type Task struct {
	clock  Clock
	spec   Spec
	paused atomic.Bool

	mu      sync.Mutex
	stopped bool
	current Timer
	stop    chan struct{}
	done    chan struct{}
}

// Start launches a task bound to ctx.
func Start(ctx context.Context, clock Clock, spec Spec) *Task {
	if spec.Interval <= 0 {
		spec.Interval = time.Second
	}
	t := &Task{
		clock: clock,
		spec:  spec,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.run(ctx)
	return t
}

// Pause freezes the task without advancing elapsed time.
func (t *Task) Pause() { t.paused.Store(true) }

// Resume continues a paused task.
func (t *Task) Resume() { t.paused.Store(false) }

// Paused reports whether the task is paused.
func (t *Task) Paused() bool { return t.paused.Load() }

// Stop cancels the task. It does not wait for the goroutine to exit.
func (t *Task) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	close(t.stop)
	if t.current != nil {
		t.current.Stop()
		t.current = nil
	}
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task goroutine has exited.
func (t *Task) Wait() { <-t.done }

func (t *Task) run(ctx context.Context) {
	defer close(t.done)

	elapsed := 0
	for t.spec.Unbounded || elapsed < t.spec.Total {
		if !t.sleep(ctx, t.spec.Interval) {
			return
		}
		if t.paused.Load() {
			for t.paused.Load() {
				if !t.sleep(ctx, PausePoll) {
					return
				}
			}
			continue
		}
		elapsed++
		if t.spec.OnTick != nil {
			t.spec.OnTick(elapsed)
		}
	}

	if t.spec.Settle > 0 && !t.sleep(ctx, t.spec.Settle) {
		return
	}
	if t.isStopped() {
		return
	}
	if t.spec.OnDone != nil {
		t.spec.OnDone()
	}
}

func (t *Task) sleep(ctx context.Context, d time.Duration) bool {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return false
	}
	timer := t.clock.NewTimer(d)
	t.current = timer
	t.mu.Unlock()

	select {
	case <-timer.C():
	case <-t.stop:
		return false
	case <-ctx.Done():
		timer.Stop()
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
	return !t.stopped
}

func (t *Task) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}
