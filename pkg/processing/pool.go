package processing

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Sink consumes snapshots in tick order.
type Sink interface {
	Name() string
	Consume(snapshot robot.SensorSnapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(snapshot robot.SensorSnapshot) error
}

func (f SinkFunc) Name() string                                 { return f.SinkName }
func (f SinkFunc) Consume(snapshot robot.SensorSnapshot) error { return f.Fn(snapshot) }

// SinkPool feeds one sink from a bounded queue. A single worker drains the
// queue so the sink sees snapshots in the order they were enqueued.
type SinkPool struct {
	sink      Sink
	logger    customlog.Logger
	queue     chan robot.SensorSnapshot
	queueSize int
	running   bool
	wg        sync.WaitGroup
	mu        sync.Mutex
	metricsMu sync.Mutex
	metrics   PoolMetrics
}

// PoolMetrics tracks one sink's throughput.
type PoolMetrics struct {
	ProcessedCount    int64 `json:"processed"`
	ErrorCount        int64 `json:"errors"`
	DroppedCount      int64 `json:"dropped"`
	QueuedCount       int64 `json:"queued"`
	LastProcessedTime int64 `json:"last_processed_ns"`
	ProcessingTimeAvg int64 `json:"avg_time_us"`
	ProcessingTimeMax int64 `json:"max_time_us"`
	Backlog           int   `json:"backlog"`
}

// NewSinkPool creates a stopped pool for sink.
func NewSinkPool(sink Sink, queueSize int, logger customlog.Logger) *SinkPool {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &SinkPool{
		sink:      sink,
		logger:    logger,
		queue:     make(chan robot.SensorSnapshot, queueSize),
		queueSize: queueSize,
	}
}

// Enqueue never blocks: when the queue is full the snapshot is dropped for
// this sink only.
func (p *SinkPool) Enqueue(snapshot robot.SensorSnapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return false
	}

	select {
	case p.queue <- snapshot:
		p.metricsMu.Lock()
		p.metrics.QueuedCount++
		p.metricsMu.Unlock()
		return true
	default:
		p.metricsMu.Lock()
		p.metrics.DroppedCount++
		p.metricsMu.Unlock()
		p.logger.Warnf("%s sink queue is full, dropping snapshot %d", p.sink.Name(), snapshot.Tick)
		return false
	}
}

// Start launches the worker.
func (p *SinkPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true

	p.wg.Add(1)
	go p.worker()
	p.logger.Debugf("Started %s sink (queue %d)", p.sink.Name(), p.queueSize)
}

// Stop closes the queue, waits for queued snapshots to be consumed and logs
// the final metrics.
func (p *SinkPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
	p.logMetrics()
}

func (p *SinkPool) worker() {
	defer p.wg.Done()

	for snapshot := range p.queue {
		startTime := time.Now()
		err := p.sink.Consume(snapshot)
		processingTime := time.Since(startTime).Microseconds()

		p.metricsMu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.LastProcessedTime = time.Now().UnixNano()
		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}
		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}
		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metricsMu.Unlock()

		if err != nil {
			p.logger.Errorf("%s sink failed on snapshot %d: %v", p.sink.Name(), snapshot.Tick, err)
		}
	}
}

// Metrics returns a copy of the current metrics, with Backlog set to the
// snapshots still waiting in the queue.
func (p *SinkPool) Metrics() PoolMetrics {
	p.metricsMu.Lock()
	m := p.metrics
	p.metricsMu.Unlock()
	m.Backlog = len(p.queue)
	return m
}

// Name returns the sink name.
func (p *SinkPool) Name() string {
	return p.sink.Name()
}

func (p *SinkPool) logMetrics() {
	m := p.Metrics()
	p.logger.Infof("%s sink metrics: processed=%s, errors=%s, dropped=%s, avg_time=%dµs, max_time=%dµs",
		p.sink.Name(), humanize.Comma(m.ProcessedCount), humanize.Comma(m.ErrorCount),
		humanize.Comma(m.DroppedCount), m.ProcessingTimeAvg, m.ProcessingTimeMax)
}
