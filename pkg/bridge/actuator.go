package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/open-teleop/robotbridge/pkg/device"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Observer is told about every actuator application, successful or not.
// It runs on the event loop and must return promptly.
type Observer interface {
	OnApplied(applied robot.AppliedCommand)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(applied robot.AppliedCommand)

func (f ObserverFunc) OnApplied(applied robot.AppliedCommand) { f(applied) }

// Actuator scales commands by the device speed and writes them to the
// provider. There are no retries: a failed write is logged and dropped.
type Actuator struct {
	provider device.Provider
	speed    float64
	logger   customlog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	observers []Observer
}

// NewActuator creates an actuator for provider with maximum native speed.
func NewActuator(provider device.Provider, speed float64, logger customlog.Logger) *Actuator {
	return &Actuator{
		provider: provider,
		speed:    speed,
		logger:   logger,
		now:      time.Now,
	}
}

// AddObserver registers o for every later application.
func (a *Actuator) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Apply validates, scales and writes cmd.
func (a *Actuator) Apply(ctx context.Context, cmd robot.ActuatorCommand) robot.AppliedCommand {
	applied := robot.AppliedCommand{
		Command:   cmd,
		AppliedAt: a.now(),
	}

	if err := cmd.Validate(); err != nil {
		a.logger.Warnf("Dropping invalid command: %v", err)
		applied.Err = err
	} else {
		applied.Output = cmd.Scale(a.speed)
		if err := a.provider.Apply(ctx, applied.Output); err != nil {
			a.logger.Errorf("Actuator write failed (left=%d right=%d): %v",
				applied.Output.Left, applied.Output.Right, err)
			applied.Err = err
		} else {
			a.logger.Debugf("Applied command: left=%d right=%d", applied.Output.Left, applied.Output.Right)
		}
	}
	if applied.Err != nil {
		applied.Error = applied.Err.Error()
	}

	a.notify(applied)
	return applied
}

func (a *Actuator) notify(applied robot.AppliedCommand) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, o := range a.observers {
		o.OnApplied(applied)
	}
}
