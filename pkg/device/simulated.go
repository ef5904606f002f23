package device

import (
	"context"
	"math"
	"sync"

	"github.com/open-teleop/robotbridge/pkg/config"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// PositionGain is the simulated tacho count advance per tick per native
// speed unit.
const PositionGain = 0.1

var _ Provider = (*SimulatedDevices)(nil)

// SimulatedDevices stands in for the whole device set when hardware is
// missing. Its waveforms depend only on a counter advanced once per Read,
// so runs are reproducible.
type SimulatedDevices struct {
	logger customlog.Logger

	mu     sync.Mutex
	time   uint64
	left   int
	right  int
	leftP  float64
	rightP float64
	lights robot.LightsState
}

// NewSimulatedDevices creates a simulation starting at time zero.
func NewSimulatedDevices(logger customlog.Logger) *SimulatedDevices {
	return &SimulatedDevices{logger: logger, lights: robot.LightsOff}
}

func (s *SimulatedDevices) Kind() Kind { return KindSimulated }

// Handles returns a simulated handle for every device the bridge knows.
func (s *SimulatedDevices) Handles() []Handle {
	names := config.KnownDevices()
	handles := make([]Handle, 0, len(names))
	for _, name := range names {
		handles = append(handles, simHandle{name: name})
	}
	return handles
}

// Status reports every simulated handle as connected.
func (s *SimulatedDevices) Status() []HandleStatus {
	names := config.KnownDevices()
	statuses := make([]HandleStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, HandleStatus{Name: name, Kind: KindSimulated, Connected: true})
	}
	return statuses
}

// Probe always succeeds.
func (s *SimulatedDevices) Probe(context.Context) error { return nil }

// Read advances the simulation by one step and returns its values.
func (s *SimulatedDevices) Read(context.Context) Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.time++
	s.leftP += float64(s.left) * PositionGain
	s.rightP += float64(s.right) * PositionGain

	reading := newReading()
	reading.Values[robot.FieldLight] = SimulatedLight(s.time)
	reading.Values[robot.FieldDistance] = SimulatedDistance(s.time)
	reading.Values[robot.FieldTouch] = 0
	reading.Values[robot.FieldLeftPosition] = s.leftP
	reading.Values[robot.FieldRightPosition] = s.rightP
	reading.Values[robot.FieldClawPosition] = 0
	return reading
}

// Apply records the outputs for position feedback and prints them.
func (s *SimulatedDevices) Apply(_ context.Context, out robot.MotorOutput) error {
	s.mu.Lock()
	s.left = out.Left
	s.right = out.Right
	if out.Lights != nil {
		s.lights = *out.Lights
	}
	lights := s.lights
	s.mu.Unlock()

	s.logger.Infof("Simulated outputs: left=%d right=%d lights=%s", out.Left, out.Right, lights)
	return nil
}

// SimulatedLight is round(50 + 10*sin(t*0.1)), always within [40, 60].
func SimulatedLight(t uint64) float64 {
	return math.Round(50 + 10*math.Sin(float64(t)*0.1))
}

// SimulatedDistance is 50 + (t mod 40) - 20, always within [30, 70).
func SimulatedDistance(t uint64) float64 {
	return float64(50 + int64(t%40) - 20)
}

type simHandle struct {
	name string
}

func (h simHandle) Name() string    { return h.name }
func (h simHandle) Kind() Kind      { return KindSimulated }
func (h simHandle) Connected() bool { return true }
