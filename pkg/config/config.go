package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver"
	"gopkg.in/yaml.v3"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// FileName is the config file looked up inside the config directory.
const FileName = "bridge_config.yaml"

// SupportedVersions is the semver range of config schemas this build reads.
const SupportedVersions = ">= 1.0, < 2.0"

// Device modes.
const (
	DeviceModeAuto      = "auto"
	DeviceModeReal      = "real"
	DeviceModeSimulated = "simulated"
)

// Device names used in devices.required and devices.ports.
const (
	DeviceLight      = "light"
	DeviceDistance   = "distance"
	DeviceTouch      = "touch"
	DeviceLeftMotor  = "left_motor"
	DeviceRightMotor = "right_motor"
	DeviceClawMotor  = "claw_motor"
	DeviceLights     = "lights"
)

// KnownDevices lists every device name the bridge can bind.
func KnownDevices() []string {
	return []string{
		DeviceLight,
		DeviceDistance,
		DeviceTouch,
		DeviceLeftMotor,
		DeviceRightMotor,
		DeviceClawMotor,
		DeviceLights,
	}
}

// Config is the bridge configuration loaded from bridge_config.yaml.
type Config struct {
	Version    string           `yaml:"version" json:"version"`
	RobotID    string           `yaml:"robot_id" json:"robot_id"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Sampling   SamplingConfig   `yaml:"sampling" json:"sampling"`
	Devices    DevicesConfig    `yaml:"devices" json:"devices"`
	Sensors    SensorsConfig    `yaml:"sensors" json:"sensors"`
	Actuators  ActuatorsConfig  `yaml:"actuators" json:"actuators"`
	Controller ControllerConfig `yaml:"controller" json:"controller"`
	ZeroMQ     ZeroMQConfig     `yaml:"zeromq" json:"zeromq"`
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
	Console    ConsoleConfig    `yaml:"console" json:"console"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// ServerConfig holds the HTTP status server settings.
type ServerConfig struct {
	Enabled  bool `yaml:"enabled" json:"enabled"`
	HTTPPort int  `yaml:"http_port" json:"http_port"`
}

// SamplingConfig holds the sampling clock period.
type SamplingConfig struct {
	Period time.Duration `yaml:"period" json:"period"`
}

// DevicesConfig controls provider selection.
type DevicesConfig struct {
	Mode      string            `yaml:"mode" json:"mode"`
	SysfsRoot string            `yaml:"sysfs_root" json:"sysfs_root"`
	IOTimeout time.Duration     `yaml:"io_timeout" json:"io_timeout"`
	Required  []string          `yaml:"required" json:"required"`
	Ports     map[string]string `yaml:"ports" json:"ports"`
}

// SensorsConfig holds per-field substitutes for failed reads.
type SensorsConfig struct {
	Defaults map[string]float64 `yaml:"defaults" json:"defaults"`
}

// ActuatorsConfig holds actuator scaling.
type ActuatorsConfig struct {
	Speed float64 `yaml:"speed" json:"speed"`
}

// ControllerConfig selects the controller transport and carries the
// pass-through startup record.
type ControllerConfig struct {
	Kind            string                  `yaml:"kind" json:"kind"`
	Telemetry       robot.TelemetryEndpoint `yaml:"telemetry" json:"telemetry"`
	ReportingPeriod time.Duration           `yaml:"reporting_period" json:"reporting_period"`
}

// ZeroMQConfig holds the remote controller sockets.
type ZeroMQConfig struct {
	RequestBindAddress string `yaml:"request_bind_address" json:"request_bind_address"`
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
	SnapshotTopic      string `yaml:"snapshot_topic" json:"snapshot_topic"`
}

// ProcessingConfig sizes the snapshot fan-out queues.
type ProcessingConfig struct {
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// ConsoleConfig controls diagnostic printing.
type ConsoleConfig struct {
	PrintSnapshots bool `yaml:"print_snapshots" json:"print_snapshots"`
}

// StorageConfig selects the recorder backend.
type StorageConfig struct {
	Kind       string `yaml:"kind" json:"kind"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
	// MemoryLimit caps the records the memory backend keeps per run and kind.
	MemoryLimit int `yaml:"memory_limit" json:"memory_limit"`
}

// Controller kinds.
const (
	ControllerNone   = "none"
	ControllerZeroMQ = "zeromq"
)

// Storage kinds.
const (
	StorageNone   = "none"
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Default returns a configuration that runs the simplest setup: 100ms
// sampling, automatic device selection, no remote controller.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		RobotID: "ev3",
		Logging: LoggingConfig{Level: "info"},
		Server:  ServerConfig{Enabled: true, HTTPPort: 8080},
		Sampling: SamplingConfig{
			Period: 100 * time.Millisecond,
		},
		Devices: DevicesConfig{
			Mode:      DeviceModeAuto,
			SysfsRoot: "/sys/class",
			IOTimeout: 50 * time.Millisecond,
			Required:  []string{DeviceLight, DeviceDistance, DeviceLeftMotor, DeviceRightMotor},
			Ports:     map[string]string{},
		},
		Sensors: SensorsConfig{
			Defaults: map[string]float64{string(robot.FieldDistance): 255},
		},
		Actuators: ActuatorsConfig{Speed: 100},
		Controller: ControllerConfig{
			Kind:            ControllerNone,
			ReportingPeriod: time.Second,
		},
		ZeroMQ: ZeroMQConfig{
			RequestBindAddress: "tcp://*:5555",
			PublishBindAddress: "tcp://*:5556",
			SnapshotTopic:      "robot.inputs",
		},
		Processing: ProcessingConfig{QueueSize: 64},
		Storage:    StorageConfig{Kind: StorageNone, SQLitePath: "bridge.db", MemoryLimit: 6000},
	}
}

// LoadConfig reads path, layering it over Default, and validates the result.
// Environment overrides are not applied here; see LoadFromDir.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file '%s': %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if cfg.Sensors.Defaults == nil {
		cfg.Sensors.Defaults = map[string]float64{}
	}
	if cfg.Devices.Ports == nil {
		cfg.Devices.Ports = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configDir/bridge_config.yaml and applies environment
// overrides. A missing file is not an error: defaults are used.
func LoadFromDir(configDir string) (*Config, string, error) {
	path := filepath.Join(configDir, FileName)

	var cfg *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = Default()
		path = ""
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Validate checks the configuration for values the bridge cannot run with.
func (c *Config) Validate() error {
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVersion, err)
	}
	version, err := semver.NewVersion(c.Version)
	if err != nil {
		return fmt.Errorf("%w: '%s': %v", ErrInvalidVersion, c.Version, err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: '%s' not in %s", ErrInvalidVersion, c.Version, SupportedVersions)
	}

	if c.Sampling.Period <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPeriod, c.Sampling.Period)
	}

	switch c.Devices.Mode {
	case DeviceModeAuto, DeviceModeReal, DeviceModeSimulated:
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidDeviceMode, c.Devices.Mode)
	}
	for _, name := range c.Devices.Required {
		if !isKnownDevice(name) {
			return fmt.Errorf("%w: required '%s'", ErrInvalidDevice, name)
		}
	}
	for name := range c.Devices.Ports {
		if !isKnownDevice(name) {
			return fmt.Errorf("%w: port for '%s'", ErrInvalidDevice, name)
		}
	}

	if c.Actuators.Speed <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, c.Actuators.Speed)
	}

	for key := range c.Sensors.Defaults {
		if _, err := robot.ParseField(key); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSensorField, err)
		}
	}

	switch c.Controller.Kind {
	case ControllerNone:
	case ControllerZeroMQ:
		if c.ZeroMQ.RequestBindAddress == "" || c.ZeroMQ.PublishBindAddress == "" {
			return ErrMissingZeroMQAddr
		}
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidController, c.Controller.Kind)
	}

	switch c.Storage.Kind {
	case StorageNone, StorageMemory, StorageSQLite:
	default:
		return fmt.Errorf("%w: '%s'", ErrInvalidStorage, c.Storage.Kind)
	}
	if c.Storage.Kind == StorageMemory && c.Storage.MemoryLimit <= 0 {
		return fmt.Errorf("%w: memory_limit %d", ErrInvalidStorage, c.Storage.MemoryLimit)
	}

	return nil
}

// SensorDefaults returns the substitute value for every field; fields not
// configured default to zero.
func (c *Config) SensorDefaults() map[robot.Field]float64 {
	defaults := make(map[robot.Field]float64, len(robot.AllFields()))
	for _, f := range robot.AllFields() {
		defaults[f] = c.Sensors.Defaults[string(f)]
	}
	return defaults
}

// PassThrough returns the startup record handed unchanged to the controller.
func (c *Config) PassThrough() robot.ControllerConfig {
	return robot.ControllerConfig{
		Telemetry:       c.Controller.Telemetry,
		ReportingPeriod: c.Controller.ReportingPeriod,
	}
}

// YAML renders the configuration back to YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func isKnownDevice(name string) bool {
	for _, known := range KnownDevices() {
		if known == name {
			return true
		}
	}
	return false
}
