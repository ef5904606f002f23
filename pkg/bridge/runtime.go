// Package bridge runs the sampling and dispatch loop between the bound device
// provider and the controller.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/open-teleop/robotbridge/pkg/device"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

var ErrAlreadyStarted = errors.New("runtime already started")

// State is the lifecycle state. Transitions are linear.
type State int32

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Publisher receives every snapshot after the controller. Fan-out to sinks
// implements it.
type Publisher interface {
	Start()
	Deliver(snapshot robot.SensorSnapshot)
	Stop()
}

// Options configures a Runtime.
type Options struct {
	Provider         device.Provider
	Controller       Controller
	ControllerConfig robot.ControllerConfig
	Publisher        Publisher

	Period   time.Duration
	Speed    float64
	Defaults map[robot.Field]float64
	Logger   customlog.Logger
}

// Runtime owns the bound provider. Ticks, command application and the final
// safe stop all run on the goroutine that calls Run.
type Runtime struct {
	provider   device.Provider
	controller Controller
	ctrlConfig robot.ControllerConfig
	publisher  Publisher
	logger     customlog.Logger

	clock    *Clock
	builder  *Builder
	actuator *Actuator
	mailbox  *Mailbox

	started atomic.Bool
	state   atomic.Int32

	mu           sync.RWMutex
	lastSnapshot *robot.SensorSnapshot
	lastApplied  *robot.AppliedCommand
}

// New creates a runtime. Controller defaults to a LocalController.
func New(opts Options) *Runtime {
	controller := opts.Controller
	if controller == nil {
		controller = LocalController{}
	}

	r := &Runtime{
		provider:   opts.Provider,
		controller: controller,
		ctrlConfig: opts.ControllerConfig,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
		clock:      NewClock(opts.Period),
		builder:    NewBuilder(opts.Provider, opts.Defaults, opts.Logger),
		actuator:   NewActuator(opts.Provider, opts.Speed, opts.Logger),
		mailbox:    NewMailbox(),
	}
	r.actuator.AddObserver(ObserverFunc(r.recordApplied))
	return r
}

// Post hands cmd to the command channel. It never blocks.
func (r *Runtime) Post(cmd robot.ActuatorCommand) {
	r.mailbox.Post(cmd)
}

// AddObserver registers o for every actuator application, including the
// safe stop written at shutdown.
func (r *Runtime) AddObserver(o Observer) {
	r.actuator.AddObserver(o)
}

// State returns the current lifecycle state.
func (r *Runtime) State() State {
	return State(r.state.Load())
}

// ProviderKind returns the kind of the bound provider.
func (r *Runtime) ProviderKind() device.Kind {
	return r.provider.Kind()
}

// Superseded returns how many commands were replaced before being applied.
func (r *Runtime) Superseded() uint64 {
	return r.mailbox.Superseded()
}

// LastSnapshot returns the most recently built snapshot.
func (r *Runtime) LastSnapshot() (robot.SensorSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastSnapshot == nil {
		return robot.SensorSnapshot{}, false
	}
	return *r.lastSnapshot, true
}

// LastApplied returns the most recent actuator application.
func (r *Runtime) LastApplied() (robot.AppliedCommand, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.lastApplied == nil {
		return robot.AppliedCommand{}, false
	}
	return *r.lastApplied, true
}

// Run starts the controller and the sampling clock and loops until ctx is
// cancelled. Once running, it writes zero speed to both motors before anything
// else is torn down, whatever the last command was. Run may be called once.
func (r *Runtime) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	r.setState(StateStarting)
	defer r.setState(StateStopped)

	r.logger.Infof("Starting bridge with %s devices, period %v", r.provider.Kind(), r.clock.Period())

	if err := r.controller.Start(ctx, r.ctrlConfig); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}
	defer func() {
		if err := r.controller.Stop(); err != nil {
			r.logger.Errorf("Error stopping controller: %v", err)
		}
	}()
	r.controller.Subscribe(r.mailbox.Post)

	if r.publisher != nil {
		r.publisher.Start()
		defer r.publisher.Stop()
	}

	ticks := r.clock.Start()
	defer r.clock.Stop()
	defer r.safeStop(ctx)

	r.setState(StateRunning)

	for {
		select {
		case <-ctx.Done():
			return nil
		case at := <-ticks:
			r.tick(ctx, r.clock.Next(at))
		case cmd := <-r.mailbox.C():
			r.actuator.Apply(ctx, cmd)
		}
	}
}

func (r *Runtime) tick(ctx context.Context, t Tick) {
	snapshot := r.builder.Build(ctx, t)

	r.mu.Lock()
	r.lastSnapshot = &snapshot
	r.mu.Unlock()

	r.controller.Deliver(snapshot)
	if r.publisher != nil {
		r.publisher.Deliver(snapshot)
	}
}

// safeStop runs on every exit path of the loop. The context is detached from
// cancellation; device calls stay bounded by the provider's I/O timeout.
func (r *Runtime) safeStop(ctx context.Context) {
	r.setState(StateShuttingDown)
	r.logger.Infof("Shutting down: stopping motors")

	off := robot.LightsOff
	stop := robot.Stop()
	stop.Lights = &off
	applied := r.actuator.Apply(context.WithoutCancel(ctx), stop)
	if applied.Err != nil {
		r.logger.Errorf("Safe stop failed: %v", applied.Err)
	}
}

func (r *Runtime) recordApplied(applied robot.AppliedCommand) {
	r.mu.Lock()
	r.lastApplied = &applied
	r.mu.Unlock()
}

func (r *Runtime) setState(s State) {
	r.state.Store(int32(s))
	r.logger.Debugf("Bridge state: %s", s)
}
