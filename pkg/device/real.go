package device

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

var _ Provider = (*RealDevices)(nil)

// RealDevices reads and drives the physical robot through a DeviceSet. Each
// handle has its own lane, so calls to one device never overlap and a stalled
// call delays only the calls to that device.
type RealDevices struct {
	set      DeviceSet
	required []Handle
	timeout  time.Duration
	logger   customlog.Logger

	// fixed at construction
	lanes map[string]*lane
}

// NewRealDevices binds set. required are the handles Probe checks; every
// device call is bounded by timeout.
func NewRealDevices(set DeviceSet, required []Handle, timeout time.Duration, logger customlog.Logger) *RealDevices {
	r := &RealDevices{
		set:      set,
		required: required,
		timeout:  timeout,
		logger:   logger,
		lanes:    make(map[string]*lane),
	}
	for _, h := range append(set.Handles(), required...) {
		if _, ok := r.lanes[h.Name()]; !ok {
			r.lanes[h.Name()] = &lane{}
		}
	}
	return r
}

func (r *RealDevices) Kind() Kind { return KindReal }

func (r *RealDevices) Handles() []Handle { return r.set.Handles() }

// Status reports each bound handle from the outcome of its last call.
func (r *RealDevices) Status() []HandleStatus {
	handles := r.set.Handles()
	statuses := make([]HandleStatus, 0, len(handles))
	for _, h := range handles {
		pending, lastErr, lastCall := r.lanes[h.Name()].status()
		st := HandleStatus{
			Name:      h.Name(),
			Kind:      KindReal,
			Connected: lastErr == nil,
			Pending:   pending,
			LastCall:  lastCall,
		}
		if lastErr != nil {
			st.LastError = lastErr.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// Probe reports ErrDevicesUnavailable naming every required handle that is
// not connected.
func (r *RealDevices) Probe(ctx context.Context) error {
	var missing []string
	for _, h := range r.required {
		if !r.probe(ctx, h) {
			missing = append(missing, h.Name())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrDevicesUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

// Read samples every field. A missing or failing device yields an entry in
// Reading.Errors instead of a value.
func (r *RealDevices) Read(ctx context.Context) Reading {
	reading := newReading()

	r.readSensor(ctx, reading, robot.FieldLight, r.set.Light)
	r.readSensor(ctx, reading, robot.FieldDistance, r.set.Distance)
	r.readSensor(ctx, reading, robot.FieldTouch, r.set.Touch)
	r.readPosition(ctx, reading, robot.FieldLeftPosition, r.set.Left)
	r.readPosition(ctx, reading, robot.FieldRightPosition, r.set.Right)
	r.readPosition(ctx, reading, robot.FieldClawPosition, r.set.Claw)

	return reading
}

func (r *RealDevices) readSensor(ctx context.Context, reading Reading, field robot.Field, s Sensor) {
	if s == nil {
		reading.Errors[field] = ErrNotConnected
		return
	}
	v, err := readLane(ctx, r.lanes[s.Name()], r.timeout, s.Value)
	if err != nil {
		reading.Errors[field] = err
		return
	}
	reading.Values[field] = v
}

func (r *RealDevices) readPosition(ctx context.Context, reading Reading, field robot.Field, m Motor) {
	if m == nil {
		reading.Errors[field] = ErrNotConnected
		return
	}
	v, err := readLane(ctx, r.lanes[m.Name()], r.timeout, m.Position)
	if err != nil {
		reading.Errors[field] = err
		return
	}
	reading.Values[field] = v
}

// Apply drives both wheel motors and, when requested, the lights. All writes
// are attempted; their errors are joined.
func (r *RealDevices) Apply(ctx context.Context, out robot.MotorOutput) error {
	var errs []error

	if err := r.run(ctx, r.set.Left, out.Left); err != nil {
		errs = append(errs, fmt.Errorf("left motor: %w", err))
	}
	if err := r.run(ctx, r.set.Right, out.Right); err != nil {
		errs = append(errs, fmt.Errorf("right motor: %w", err))
	}
	if out.Lights != nil && r.set.Lights != nil {
		state := *out.Lights
		lights := r.set.Lights
		err := r.lanes[lights.Name()].write(ctx, r.timeout, func() error {
			return lights.Set(state)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("lights: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (r *RealDevices) run(ctx context.Context, m Motor, speed int) error {
	if m == nil {
		return ErrNotConnected
	}
	return r.lanes[m.Name()].write(ctx, r.timeout, func() error {
		if speed == 0 {
			return m.Stop()
		}
		return m.Run(speed)
	})
}

// probe treats a panic, a timeout or a false Connected as unavailable.
func (r *RealDevices) probe(ctx context.Context, h Handle) bool {
	if h == nil {
		return false
	}
	ok, err := readLane(ctx, r.lanes[h.Name()], r.timeout, func() (bool, error) {
		if !h.Connected() {
			return false, ErrNotConnected
		}
		return true, nil
	})
	return err == nil && ok
}
