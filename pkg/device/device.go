// Package device defines the capability interfaces the bridge consumes from
// the robot's device layer and the two providers bound behind them: the real
// devices and a deterministic simulation.
package device

import (
	"context"
	"errors"
	"time"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Kind identifies which provider a handle belongs to.
type Kind string

const (
	KindReal      Kind = "real"
	KindSimulated Kind = "simulated"
)

var (
	ErrNotConnected       = errors.New("device not connected")
	ErrTimeout            = errors.New("device call timed out")
	ErrDevicesUnavailable = errors.New("required devices unavailable")
	ErrBusy               = errors.New("device busy with an earlier call")
	ErrSuperseded         = errors.New("device write superseded by a later write")
)

// Handle is one bound sensor or actuator.
type Handle interface {
	Name() string
	Kind() Kind
	Connected() bool
}

// Sensor reads a single numeric value.
type Sensor interface {
	Handle
	Value() (float64, error)
}

// Motor is a speed-controlled actuator with position feedback.
// Speed is in the device's native unit.
type Motor interface {
	Handle
	Position() (float64, error)
	Run(speed int) error
	Stop() error
}

// Lights is the brick status light.
type Lights interface {
	Handle
	Set(state robot.LightsState) error
}

// Driver opens handles on the device layer. An error means the device is not
// present.
type Driver interface {
	Sensor(name, port string) (Sensor, error)
	Motor(name, port string) (Motor, error)
	Lights() (Lights, error)
}

// Reading is the result of one provider read. A field is present in exactly
// one of Values or Errors.
type Reading struct {
	Values map[robot.Field]float64
	Errors map[robot.Field]error
}

func newReading() Reading {
	return Reading{
		Values: make(map[robot.Field]float64, len(robot.AllFields())),
		Errors: make(map[robot.Field]error),
	}
}

// Provider is the bound implementation of the device layer. It is selected
// once at startup and owned by the runtime's event loop.
type Provider interface {
	Kind() Kind
	Handles() []Handle
	Probe(ctx context.Context) error
	Read(ctx context.Context) Reading
	Apply(ctx context.Context, out robot.MotorOutput) error
	// Status reports what the provider's own calls last observed. It does no
	// device I/O and is safe from any goroutine.
	Status() []HandleStatus
}

// HandleStatus is the last observed state of one bound handle.
type HandleStatus struct {
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Connected bool      `json:"connected"`
	Pending   bool      `json:"pending"`
	LastError string    `json:"last_error,omitempty"`
	LastCall  time.Time `json:"last_call,omitempty"`
}

// DeviceSet groups the handles bound for one run. Nil entries are devices
// that are not present.
type DeviceSet struct {
	Light    Sensor
	Distance Sensor
	Touch    Sensor
	Left     Motor
	Right    Motor
	Claw     Motor
	Lights   Lights
}

// Handles returns the non-nil handles.
func (s DeviceSet) Handles() []Handle {
	all := []Handle{}
	add := func(h Handle, present bool) {
		if present {
			all = append(all, h)
		}
	}
	add(s.Light, s.Light != nil)
	add(s.Distance, s.Distance != nil)
	add(s.Touch, s.Touch != nil)
	add(s.Left, s.Left != nil)
	add(s.Right, s.Right != nil)
	add(s.Claw, s.Claw != nil)
	add(s.Lights, s.Lights != nil)
	return all
}
