package device

import (
	"context"
	"fmt"

	"github.com/open-teleop/robotbridge/pkg/config"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
)

// Select binds the provider for this run. In auto mode every required device
// is probed; if all are available the real devices are bound, otherwise the
// simulation replaces the whole set. Real and simulated handles are never
// mixed. Probe failures only steer the choice; the only error is real mode
// with missing devices.
func Select(ctx context.Context, drv Driver, cfg config.DevicesConfig, logger customlog.Logger) (Provider, error) {
	if cfg.Mode == config.DeviceModeSimulated {
		logger.Infof("Device mode forced to simulated")
		return NewSimulatedDevices(logger.WithField("provider", KindSimulated)), nil
	}

	if drv == nil {
		if cfg.Mode == config.DeviceModeReal {
			return nil, fmt.Errorf("%w: no device driver", ErrDevicesUnavailable)
		}
		logger.Warnf("No device driver available, using simulated devices")
		return NewSimulatedDevices(logger.WithField("provider", KindSimulated)), nil
	}

	set, required := Bind(drv, cfg, logger)
	devices := NewRealDevices(set, required, cfg.IOTimeout, logger.WithField("provider", KindReal))

	err := devices.Probe(ctx)
	if err == nil {
		logger.Infof("All %d required devices available, using real devices", len(required))
		return devices, nil
	}

	if cfg.Mode == config.DeviceModeReal {
		return nil, err
	}
	logger.Warnf("%v; using simulated devices for the whole set", err)
	return NewSimulatedDevices(logger.WithField("provider", KindSimulated)), nil
}

// Bind opens every known device through drv. Required devices that could not
// be opened are returned as placeholders that report not connected, so Probe
// names them.
func Bind(drv Driver, cfg config.DevicesConfig, logger customlog.Logger) (DeviceSet, []Handle) {
	var set DeviceSet
	opened := make(map[string]Handle)

	openSensor := func(name string) Sensor {
		s, err := drv.Sensor(name, cfg.Ports[name])
		if err != nil {
			logger.Debugf("Sensor %s not opened: %v", name, err)
			return nil
		}
		opened[name] = s
		return s
	}
	openMotor := func(name string) Motor {
		m, err := drv.Motor(name, cfg.Ports[name])
		if err != nil {
			logger.Debugf("Motor %s not opened: %v", name, err)
			return nil
		}
		opened[name] = m
		return m
	}

	set.Light = openSensor(config.DeviceLight)
	set.Distance = openSensor(config.DeviceDistance)
	set.Touch = openSensor(config.DeviceTouch)
	set.Left = openMotor(config.DeviceLeftMotor)
	set.Right = openMotor(config.DeviceRightMotor)
	set.Claw = openMotor(config.DeviceClawMotor)
	if lights, err := drv.Lights(); err == nil {
		set.Lights = lights
		opened[config.DeviceLights] = lights
	} else {
		logger.Debugf("Lights not opened: %v", err)
	}

	required := make([]Handle, 0, len(cfg.Required))
	for _, name := range cfg.Required {
		if h, ok := opened[name]; ok {
			required = append(required, h)
			continue
		}
		required = append(required, missingHandle{name: name})
	}
	return set, required
}

type missingHandle struct {
	name string
}

func (h missingHandle) Name() string    { return h.name }
func (h missingHandle) Kind() Kind      { return KindReal }
func (h missingHandle) Connected() bool { return false }
