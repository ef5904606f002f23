package device

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// lane serializes the calls made to one handle. Calls run one at a time on
// the lane's goroutine, so a call that outlives its timeout still completes
// before the next one starts. Reads are refused while a call is in flight;
// writes queue behind it and a newer write replaces one still waiting. A lane
// therefore holds at most one goroutine and one waiting write.
type lane struct {
	mu       sync.Mutex
	running  bool
	next     *laneJob
	lastErr  error
	lastCall time.Time
}

type laneJob struct {
	fn   func() error
	done chan error
}

func (l *lane) submit(fn func() error, queue bool) (<-chan error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running && !queue {
		return nil, ErrBusy
	}
	job := &laneJob{fn: fn, done: make(chan error, 1)}
	if l.next != nil {
		l.next.done <- ErrSuperseded
	}
	l.next = job
	if !l.running {
		l.running = true
		go l.drain()
	}
	return job.done, nil
}

func (l *lane) drain() {
	for {
		l.mu.Lock()
		job := l.next
		l.next = nil
		l.mu.Unlock()

		err := recoverCall(job.fn)

		l.mu.Lock()
		l.lastErr = err
		l.lastCall = time.Now()
		more := l.next != nil
		if !more {
			l.running = false
		}
		l.mu.Unlock()

		job.done <- err
		if !more {
			return
		}
	}
}

// call runs fn on the lane and waits at most timeout for it. A timeout <= 0
// waits for the result. On timeout the call keeps its place on the lane.
func (l *lane) call(ctx context.Context, timeout time.Duration, queue bool, fn func() error) error {
	done, err := l.submit(fn, queue)
	if err != nil {
		return err
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case err := <-done:
		return err
	case <-expired:
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// write queues fn behind any call still running on the lane.
func (l *lane) write(ctx context.Context, timeout time.Duration, fn func() error) error {
	return l.call(ctx, timeout, true, fn)
}

// status reports the outcome of the last completed call without touching the
// device.
func (l *lane) status() (pending bool, lastErr error, lastCall time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running, l.lastErr, l.lastCall
}

// readLane runs fn on l unless an earlier call is still in flight.
func readLane[T any](ctx context.Context, l *lane, timeout time.Duration, fn func() (T, error)) (T, error) {
	var value T
	err := l.call(ctx, timeout, false, func() error {
		v, err := fn()
		value = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

func recoverCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("device call panicked: %v", r)
		}
	}()
	return fn()
}
