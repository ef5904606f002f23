package device

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

func quietLogger() customlog.Logger {
	return customlog.NewWriterLogger("error", io.Discard)
}

type fakeSensor struct {
	name      string
	connected bool
	value     float64
	err       error
	panics    bool
	delay     time.Duration
	calls     atomic.Int32
}

func (s *fakeSensor) Name() string { return s.name }
func (s *fakeSensor) Kind() Kind   { return KindReal }
func (s *fakeSensor) Connected() bool {
	if s.panics {
		panic("sensor probe exploded")
	}
	return s.connected
}
func (s *fakeSensor) Value() (float64, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.value, s.err
}

type fakeMotor struct {
	name      string
	connected bool
	position  float64
	runErr    error
	runDelay  time.Duration

	mu    sync.Mutex
	runs  []int
	stops int
	state string
}

func (m *fakeMotor) Name() string               { return m.name }
func (m *fakeMotor) Kind() Kind                 { return KindReal }
func (m *fakeMotor) Connected() bool            { return m.connected }
func (m *fakeMotor) Position() (float64, error) { return m.position, nil }
func (m *fakeMotor) Run(speed int) error {
	if m.runDelay > 0 {
		time.Sleep(m.runDelay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, speed)
	m.state = "run"
	return m.runErr
}
func (m *fakeMotor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.state = "stop"
	return nil
}

func (m *fakeMotor) snapshot() (runs []int, stops int, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.runs...), m.stops, m.state
}

type fakeLights struct {
	mu    sync.Mutex
	state robot.LightsState
}

func (l *fakeLights) Name() string    { return "lights" }
func (l *fakeLights) Kind() Kind      { return KindReal }
func (l *fakeLights) Connected() bool { return true }
func (l *fakeLights) Set(state robot.LightsState) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	return nil
}

type fakeDriver struct {
	sensors map[string]*fakeSensor
	motors  map[string]*fakeMotor
	lights  *fakeLights
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		sensors: map[string]*fakeSensor{
			"light":    {name: "light", connected: true, value: 42},
			"distance": {name: "distance", connected: true, value: 17},
			"touch":    {name: "touch", connected: true, value: 1},
		},
		motors: map[string]*fakeMotor{
			"left_motor":  {name: "left_motor", connected: true, position: 360},
			"right_motor": {name: "right_motor", connected: true, position: -90},
			"claw_motor":  {name: "claw_motor", connected: true, position: 15},
		},
		lights: &fakeLights{},
	}
}

var errAbsent = errors.New("absent")

func (d *fakeDriver) Sensor(name, port string) (Sensor, error) {
	s, ok := d.sensors[name]
	if !ok {
		return nil, fmt.Errorf("sensor %s: %w", name, errAbsent)
	}
	return s, nil
}

func (d *fakeDriver) Motor(name, port string) (Motor, error) {
	m, ok := d.motors[name]
	if !ok {
		return nil, fmt.Errorf("motor %s: %w", name, errAbsent)
	}
	return m, nil
}

func (d *fakeDriver) Lights() (Lights, error) {
	if d.lights == nil {
		return nil, errAbsent
	}
	return d.lights, nil
}

// uniform reports whether every handle belongs to kind.
func uniform(handles []Handle, kind Kind) bool {
	for _, h := range handles {
		if h.Kind() != kind {
			return false
		}
	}
	return true
}
