package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// EnvOverrides are the environment variables that take precedence over the
// config file.
type EnvOverrides struct {
	LogLevel     string        `env:"BRIDGE_LOG_LEVEL"`
	DeviceMode   string        `env:"BRIDGE_DEVICE_MODE"`
	HTTPPort     int           `env:"BRIDGE_HTTP_PORT"`
	SamplePeriod time.Duration `env:"BRIDGE_SAMPLE_PERIOD"`
	Speed        float64       `env:"BRIDGE_SPEED"`
	Controller   string        `env:"BRIDGE_CONTROLLER"`
}

// ApplyEnv reads EnvOverrides and copies every set value into cfg.
func ApplyEnv(cfg *Config) error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironmentOverride, err)
	}

	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.DeviceMode != "" {
		cfg.Devices.Mode = o.DeviceMode
	}
	if o.HTTPPort != 0 {
		cfg.Server.HTTPPort = o.HTTPPort
	}
	if o.SamplePeriod != 0 {
		cfg.Sampling.Period = o.SamplePeriod
	}
	if o.Speed != 0 {
		cfg.Actuators.Speed = o.Speed
	}
	if o.Controller != "" {
		cfg.Controller.Kind = o.Controller
	}
	return nil
}
