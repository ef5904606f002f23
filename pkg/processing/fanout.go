package processing

import (
	"fmt"
	"sync"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Fanout delivers every snapshot to each registered sink through its own
// SinkPool, so a slow sink delays nobody but itself.
type Fanout struct {
	logger    customlog.Logger
	queueSize int

	mu      sync.RWMutex
	pools   []*SinkPool
	running bool
}

// NewFanout creates a fan-out with the given per-sink queue size.
func NewFanout(queueSize int, logger customlog.Logger) *Fanout {
	return &Fanout{
		logger:    logger,
		queueSize: queueSize,
	}
}

// Register adds a sink. Sinks registered after Start are started at once.
func (f *Fanout) Register(sink Sink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.pools {
		if p.Name() == sink.Name() {
			return fmt.Errorf("sink '%s' already registered", sink.Name())
		}
	}

	pool := NewSinkPool(sink, f.queueSize, f.logger.WithField("sink", sink.Name()))
	f.pools = append(f.pools, pool)
	if f.running {
		pool.Start()
	}
	f.logger.Infof("Registered snapshot sink '%s'", sink.Name())
	return nil
}

// Deliver enqueues snapshot on every sink and never blocks.
func (f *Fanout) Deliver(snapshot robot.SensorSnapshot) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.running {
		return
	}
	for _, p := range f.pools {
		p.Enqueue(snapshot)
	}
}

// Start starts every sink.
func (f *Fanout) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		return
	}
	f.running = true
	for _, p := range f.pools {
		p.Start()
	}
	f.logger.Infof("Snapshot fan-out started with %d sinks", len(f.pools))
}

// Stop drains and stops every sink.
func (f *Fanout) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	pools := append([]*SinkPool(nil), f.pools...)
	f.mu.Unlock()

	for _, p := range pools {
		p.Stop()
	}
	f.logger.Infof("Snapshot fan-out stopped")
}

// Metrics returns per-sink metrics keyed by sink name.
func (f *Fanout) Metrics() map[string]PoolMetrics {
	f.mu.RLock()
	defer f.mu.RUnlock()

	metrics := make(map[string]PoolMetrics, len(f.pools))
	for _, p := range f.pools {
		metrics[p.Name()] = p.Metrics()
	}
	return metrics
}
