package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

const (
	commandQueueSize = 64
	writeTimeout     = 2 * time.Second
)

// Recorder writes one run to a Store. It consumes snapshots as a fan-out
// sink and actuator applications as an observer of the bridge.
type Recorder struct {
	store  Store
	runID  string
	logger customlog.Logger

	commands chan robot.AppliedCommand
	dropped  atomic.Int64
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

// NewRecorder creates a recorder for a new run with a random run id.
func NewRecorder(store Store, logger customlog.Logger) *Recorder {
	r := &Recorder{
		store:    store,
		runID:    uuid.NewString(),
		logger:   logger,
		commands: make(chan robot.AppliedCommand, commandQueueSize),
	}
	r.wg.Add(1)
	go r.writeCommands()
	return r
}

// RunID identifies this run in the store.
func (r *Recorder) RunID() string {
	return r.runID
}

// Store returns the underlying store.
func (r *Recorder) Store() Store {
	return r.store
}

func (r *Recorder) Name() string { return "recorder" }

// Consume stores one snapshot.
func (r *Recorder) Consume(snapshot robot.SensorSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return r.store.SaveSnapshot(ctx, r.runID, snapshot)
}

// OnApplied queues an application for writing. It never blocks the caller;
// when the queue is full the record is dropped.
func (r *Recorder) OnApplied(applied robot.AppliedCommand) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.commands <- applied:
	default:
		r.dropped.Add(1)
	}
}

// Close writes the queued applications and stops the writer. Applications
// reported after Close are ignored.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.commands)
	r.mu.Unlock()

	r.wg.Wait()

	if n := r.dropped.Load(); n > 0 {
		r.logger.Warnf("Recorder dropped %d command records", n)
	}
}

func (r *Recorder) writeCommands() {
	defer r.wg.Done()
	for applied := range r.commands {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := r.store.SaveCommand(ctx, r.runID, applied); err != nil {
			r.logger.Errorf("Failed to record command: %v", err)
		}
		cancel()
	}
}
