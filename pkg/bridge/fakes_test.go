package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/open-teleop/robotbridge/pkg/device"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// testContext stands in for t.Context (Go 1.24+): a context cancelled when
// the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func quietLogger() customlog.Logger {
	return customlog.NewWriterLogger("error", io.Discard)
}

// fakeProvider records every output it is asked to apply.
type fakeProvider struct {
	mu       sync.Mutex
	values   map[robot.Field]float64
	failing  map[robot.Field]error
	applyErr error
	applied  []robot.MotorOutput
	reads    int
	notify   chan robot.MotorOutput
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		values: map[robot.Field]float64{
			robot.FieldLight:         42,
			robot.FieldDistance:      17,
			robot.FieldTouch:         1,
			robot.FieldLeftPosition:  10,
			robot.FieldRightPosition: -10,
			robot.FieldClawPosition:  3,
		},
		failing: map[robot.Field]error{},
		notify:  make(chan robot.MotorOutput, 16),
	}
}

func (p *fakeProvider) Kind() device.Kind              { return device.KindReal }
func (p *fakeProvider) Handles() []device.Handle       { return nil }
func (p *fakeProvider) Probe(ctx context.Context) error { return nil }
func (p *fakeProvider) Status() []device.HandleStatus  { return nil }

func (p *fakeProvider) Read(ctx context.Context) device.Reading {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++

	reading := device.Reading{
		Values: map[robot.Field]float64{},
		Errors: map[robot.Field]error{},
	}
	for f, v := range p.values {
		if err, ok := p.failing[f]; ok {
			reading.Errors[f] = err
			continue
		}
		reading.Values[f] = v
	}
	return reading
}

func (p *fakeProvider) Apply(ctx context.Context, out robot.MotorOutput) error {
	p.mu.Lock()
	p.applied = append(p.applied, out)
	err := p.applyErr
	p.mu.Unlock()

	select {
	case p.notify <- out:
	default:
	}
	return err
}

func (p *fakeProvider) Applied() []robot.MotorOutput {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]robot.MotorOutput(nil), p.applied...)
}

func (p *fakeProvider) fail(f robot.Field) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failing[f] = device.ErrNotConnected
}

func (p *fakeProvider) heal(f robot.Field) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failing, f)
}

// recordingController captures delivered snapshots and exposes the
// subscribed callback.
type recordingController struct {
	mu        sync.Mutex
	snapshots []robot.SensorSnapshot
	cfg       robot.ControllerConfig
	post      func(robot.ActuatorCommand)
	delivered chan struct{}
	startErr  error
	stopped   bool
}

func newRecordingController() *recordingController {
	return &recordingController{delivered: make(chan struct{}, 1024)}
}

func (c *recordingController) Start(ctx context.Context, cfg robot.ControllerConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	return c.startErr
}

func (c *recordingController) Deliver(snapshot robot.SensorSnapshot) {
	c.mu.Lock()
	c.snapshots = append(c.snapshots, snapshot)
	c.mu.Unlock()
	select {
	case c.delivered <- struct{}{}:
	default:
	}
}

func (c *recordingController) Subscribe(fn func(robot.ActuatorCommand)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.post = fn
}

func (c *recordingController) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	return nil
}

func (c *recordingController) Snapshots() []robot.SensorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]robot.SensorSnapshot(nil), c.snapshots...)
}

func waitFor(ch <-chan struct{}, n int, timeout time.Duration) error {
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-deadline:
			return errors.New("timed out")
		}
	}
	return nil
}
