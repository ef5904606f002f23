package config

import "errors"

// Validation errors. Wrapped with the offending value by Validate.
var (
	ErrInvalidVersion      = errors.New("invalid config version")
	ErrInvalidPeriod       = errors.New("invalid sampling period")
	ErrInvalidDeviceMode   = errors.New("invalid device mode")
	ErrInvalidDevice       = errors.New("invalid device name")
	ErrInvalidSpeed        = errors.New("invalid actuator speed")
	ErrInvalidSensorField  = errors.New("invalid sensor default")
	ErrInvalidController   = errors.New("invalid controller kind")
	ErrInvalidStorage      = errors.New("invalid storage kind")
	ErrMissingZeroMQAddr   = errors.New("missing zeromq bind address")
	ErrEnvironmentOverride = errors.New("invalid environment override")
)
