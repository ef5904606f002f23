// Package ev3dev exposes the ev3dev sysfs device classes as device handles.
// Each handle is a directory of attribute files; reads and writes are plain
// file operations and may block on a misbehaving driver, which is why the
// bridge bounds every call.
package ev3dev

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/open-teleop/robotbridge/pkg/config"
	"github.com/open-teleop/robotbridge/pkg/device"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// ErrNotFound is returned when no device matches the requested name and port.
var ErrNotFound = errors.New("ev3dev device not found")

const (
	sensorClass = "lego-sensor"
	motorClass  = "tacho-motor"
	ledsClass   = "leds"
)

// Sensor driver names per logical sensor.
var sensorDrivers = map[string]string{
	config.DeviceLight:    "lego-ev3-color",
	config.DeviceDistance: "lego-ev3-us",
	config.DeviceTouch:    "lego-ev3-touch",
}

// Default ports used when the config leaves a motor port empty.
var motorPorts = map[string]string{
	config.DeviceLeftMotor:  "ev3-ports:outA",
	config.DeviceRightMotor: "ev3-ports:outB",
	config.DeviceClawMotor:  "ev3-ports:outC",
}

var _ device.Driver = (*Driver)(nil)

// Driver finds devices below root, normally /sys/class.
type Driver struct {
	root string
}

// New returns a driver rooted at root.
func New(root string) *Driver {
	return &Driver{root: root}
}

// Sensor finds the sensor whose driver matches name. An empty port accepts
// any port.
func (d *Driver) Sensor(name, port string) (device.Sensor, error) {
	driverName, ok := sensorDrivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sensor '%s'", ErrNotFound, name)
	}
	dir, err := d.find(sensorClass, func(dir string) bool {
		return readString(dir, "driver_name") == driverName &&
			(port == "" || readString(dir, "address") == port)
	})
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", name, err)
	}
	return &Sensor{name: name, dir: dir}, nil
}

// Motor finds the tacho motor on port, or on the default port for name.
func (d *Driver) Motor(name, port string) (device.Motor, error) {
	if port == "" {
		port = motorPorts[name]
	}
	dir, err := d.find(motorClass, func(dir string) bool {
		return readString(dir, "address") == port
	})
	if err != nil {
		return nil, fmt.Errorf("motor %s on %s: %w", name, port, err)
	}
	return &Motor{name: name, dir: dir}, nil
}

// Lights binds the left and right brick status LEDs.
func (d *Driver) Lights() (device.Lights, error) {
	l := &Lights{}
	for i, side := range []string{"left", "right"} {
		green := filepath.Join(d.root, ledsClass, fmt.Sprintf("led%d:green:brick-status", i))
		red := filepath.Join(d.root, ledsClass, fmt.Sprintf("led%d:red:brick-status", i))
		if !exists(green) || !exists(red) {
			return nil, fmt.Errorf("%s status led: %w", side, ErrNotFound)
		}
		l.green = append(l.green, green)
		l.red = append(l.red, red)
	}
	return l, nil
}

func (d *Driver) find(class string, match func(dir string) bool) (string, error) {
	entries, err := os.ReadDir(filepath.Join(d.root, class))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	for _, e := range entries {
		dir := filepath.Join(d.root, class, e.Name())
		if match(dir) {
			return dir, nil
		}
	}
	return "", ErrNotFound
}

// Sensor is a lego-sensor device; Value reads value0 scaled by decimals.
type Sensor struct {
	name string
	dir  string
}

func (s *Sensor) Name() string      { return s.name }
func (s *Sensor) Kind() device.Kind { return device.KindReal }
func (s *Sensor) Connected() bool   { return exists(filepath.Join(s.dir, "value0")) }

func (s *Sensor) Value() (float64, error) {
	raw, err := readInt(s.dir, "value0")
	if err != nil {
		return 0, err
	}
	decimals, err := readInt(s.dir, "decimals")
	if err != nil {
		decimals = 0
	}
	return float64(raw) / math.Pow10(decimals), nil
}

// Motor is a tacho-motor driven in run-direct mode; speed is the duty cycle
// in percent.
type Motor struct {
	name string
	dir  string
}

func (m *Motor) Name() string      { return m.name }
func (m *Motor) Kind() device.Kind { return device.KindReal }
func (m *Motor) Connected() bool   { return exists(filepath.Join(m.dir, "command")) }

func (m *Motor) Position() (float64, error) {
	v, err := readInt(m.dir, "position")
	return float64(v), err
}

func (m *Motor) Run(speed int) error {
	if err := writeString(m.dir, "duty_cycle_sp", strconv.Itoa(speed)); err != nil {
		return err
	}
	return writeString(m.dir, "command", "run-direct")
}

func (m *Motor) Stop() error {
	if err := writeString(m.dir, "duty_cycle_sp", "0"); err != nil {
		return err
	}
	return writeString(m.dir, "command", "stop")
}

// Lights drives both status LEDs to the same colour.
type Lights struct {
	green []string
	red   []string
}

func (l *Lights) Name() string      { return config.DeviceLights }
func (l *Lights) Kind() device.Kind { return device.KindReal }

func (l *Lights) Connected() bool {
	for _, dir := range append(append([]string{}, l.green...), l.red...) {
		if !exists(filepath.Join(dir, "brightness")) {
			return false
		}
	}
	return true
}

func (l *Lights) Set(state robot.LightsState) error {
	var green, red bool
	switch state {
	case robot.LightsOff:
	case robot.LightsGreen:
		green = true
	case robot.LightsRed:
		red = true
	case robot.LightsAmber:
		green, red = true, true
	default:
		return fmt.Errorf("unknown lights state '%s'", state)
	}

	for i := range l.green {
		if err := setLED(l.green[i], green); err != nil {
			return err
		}
		if err := setLED(l.red[i], red); err != nil {
			return err
		}
	}
	return nil
}

func setLED(dir string, on bool) error {
	value := "0"
	if on {
		value = readString(dir, "max_brightness")
		if value == "" {
			value = "255"
		}
	}
	return writeString(dir, "brightness", value)
}

func readString(dir, attr string) string {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readInt(dir, attr string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", attr, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", attr, err)
	}
	return v, nil
}

func writeString(dir, attr, value string) error {
	if err := os.WriteFile(filepath.Join(dir, attr), []byte(value), 0644); err != nil {
		return fmt.Errorf("write %s: %w", attr, err)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
