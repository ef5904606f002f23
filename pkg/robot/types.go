// Package robot holds the values exchanged between the bridge and the
// controller: per-tick sensor snapshots and actuator commands.
package robot

import (
	"fmt"
	"math"
	"time"
)

// Field names one value of a SensorSnapshot.
type Field string

const (
	FieldLight         Field = "light"
	FieldDistance      Field = "distance"
	FieldTouch         Field = "touch"
	FieldLeftPosition  Field = "left_position"
	FieldRightPosition Field = "right_position"
	FieldClawPosition  Field = "claw_position"
)

// AllFields returns every snapshot field in a stable order.
func AllFields() []Field {
	return []Field{
		FieldLight,
		FieldDistance,
		FieldTouch,
		FieldLeftPosition,
		FieldRightPosition,
		FieldClawPosition,
	}
}

// ParseField converts a config key into a Field.
func ParseField(s string) (Field, error) {
	for _, f := range AllFields() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sensor field '%s'", s)
}

// SensorSnapshot is the immutable record captured on one tick.
type SensorSnapshot struct {
	Tick               uint64    `json:"tick"`
	Timestamp          time.Time `json:"timestamp"`
	Source             string    `json:"source"`
	LightLevel         float64   `json:"light_level"`
	Distance           float64   `json:"distance"`
	TouchPressed       bool      `json:"touch_pressed"`
	LeftMotorPosition  float64   `json:"left_motor_position"`
	RightMotorPosition float64   `json:"right_motor_position"`
	ClawMotorPosition  float64   `json:"claw_motor_position"`
	Defaulted          []Field   `json:"defaulted,omitempty"`
}

// Value returns the numeric value of a field; touch is 1 when pressed.
func (s SensorSnapshot) Value(f Field) float64 {
	switch f {
	case FieldLight:
		return s.LightLevel
	case FieldDistance:
		return s.Distance
	case FieldTouch:
		if s.TouchPressed {
			return 1
		}
		return 0
	case FieldLeftPosition:
		return s.LeftMotorPosition
	case FieldRightPosition:
		return s.RightMotorPosition
	case FieldClawPosition:
		return s.ClawMotorPosition
	}
	return 0
}

// IsDefaulted reports whether f was substituted by its default this tick.
func (s SensorSnapshot) IsDefaulted(f Field) bool {
	for _, d := range s.Defaulted {
		if d == f {
			return true
		}
	}
	return false
}

// LightsState is the brick status light colour.
type LightsState string

const (
	LightsOff   LightsState = "off"
	LightsGreen LightsState = "green"
	LightsRed   LightsState = "red"
	LightsAmber LightsState = "amber"
)

// Valid reports whether the state is one of the known colours.
func (l LightsState) Valid() bool {
	switch l {
	case LightsOff, LightsGreen, LightsRed, LightsAmber:
		return true
	}
	return false
}

// ActuatorCommand is one instruction batch posted by the controller.
// Speeds are normalized to [-1, 1].
type ActuatorCommand struct {
	LeftMotorSpeed  float64      `json:"left_motor_speed"`
	RightMotorSpeed float64      `json:"right_motor_speed"`
	Lights          *LightsState `json:"lights,omitempty"`
}

// Stop is the safe idle command.
func Stop() ActuatorCommand {
	return ActuatorCommand{}
}

// Validate rejects NaN speeds and unknown light states. Out of range speeds
// are not an error; Scale clamps them.
func (c ActuatorCommand) Validate() error {
	if math.IsNaN(c.LeftMotorSpeed) || math.IsNaN(c.RightMotorSpeed) {
		return fmt.Errorf("motor speed must be a number")
	}
	if c.Lights != nil && !c.Lights.Valid() {
		return fmt.Errorf("unknown lights state '%s'", *c.Lights)
	}
	return nil
}

// MotorOutput is a command converted to native actuator units.
type MotorOutput struct {
	Left   int          `json:"left"`
	Right  int          `json:"right"`
	Lights *LightsState `json:"lights,omitempty"`
}

// Scale converts normalized speeds into native units, clamping to [-1, 1]
// and rounding to the nearest integer.
func (c ActuatorCommand) Scale(speed float64) MotorOutput {
	return MotorOutput{
		Left:   scaleSpeed(c.LeftMotorSpeed, speed),
		Right:  scaleSpeed(c.RightMotorSpeed, speed),
		Lights: c.Lights,
	}
}

func scaleSpeed(v, speed float64) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * speed))
}

// AppliedCommand reports the outcome of one actuator application.
type AppliedCommand struct {
	Command   ActuatorCommand `json:"command"`
	Output    MotorOutput     `json:"output"`
	AppliedAt time.Time       `json:"applied_at"`
	Err       error           `json:"-"`
	Error     string          `json:"error,omitempty"`
}

// TelemetryEndpoint is the remote telemetry target handed to the controller.
type TelemetryEndpoint struct {
	Host     string `yaml:"host" json:"host"`
	Database string `yaml:"database" json:"database"`
}

// ControllerConfig is passed through to the controller at construction.
// The bridge does not interpret it.
type ControllerConfig struct {
	Telemetry       TelemetryEndpoint `yaml:"telemetry" json:"telemetry"`
	ReportingPeriod time.Duration     `yaml:"reporting_period" json:"reporting_period"`
}
