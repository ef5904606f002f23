package api

import (
	"github.com/open-teleop/robotbridge/pkg/bridge"
	"github.com/open-teleop/robotbridge/pkg/config"
	"github.com/open-teleop/robotbridge/pkg/device"
	"github.com/open-teleop/robotbridge/pkg/processing"
	"github.com/open-teleop/robotbridge/pkg/robot"
	"github.com/open-teleop/robotbridge/pkg/storage"
)

// BridgeState is the part of the runtime the API reads.
type BridgeState interface {
	State() bridge.State
	ProviderKind() device.Kind
	LastSnapshot() (robot.SensorSnapshot, bool)
	LastApplied() (robot.AppliedCommand, bool)
	Superseded() uint64
}

// CommandPoster accepts commands for the bridge. It must not block.
type CommandPoster interface {
	Post(cmd robot.ActuatorCommand)
}

// ConfigSource returns the active configuration.
type ConfigSource interface {
	Config() *config.Config
}

// MetricsSource reports per-sink metrics.
type MetricsSource interface {
	Metrics() map[string]processing.PoolMetrics
}

// RunRecorder is the recording behind the /runs routes.
type RunRecorder interface {
	RunID() string
	Store() storage.Store
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	RobotID      string                            `json:"robot_id"`
	RunID        string                            `json:"run_id,omitempty"`
	State        string                            `json:"state"`
	Devices      string                            `json:"devices"`
	LastSnapshot *robot.SensorSnapshot             `json:"last_snapshot,omitempty"`
	LastApplied  *robot.AppliedCommand             `json:"last_applied,omitempty"`
	Superseded   uint64                            `json:"superseded_commands"`
	Sinks        map[string]processing.PoolMetrics `json:"sinks,omitempty"`
}
