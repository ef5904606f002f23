package bridge

import (
	"context"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Controller is the external decision maker. The bridge pushes one snapshot
// per tick and the controller posts commands at its own pace.
type Controller interface {
	// Start is called once with the configuration the controller was built
	// with; the bridge does not interpret it.
	Start(ctx context.Context, cfg robot.ControllerConfig) error
	// Deliver must not block.
	Deliver(snapshot robot.SensorSnapshot)
	// Subscribe registers the command callback. It is called once.
	Subscribe(fn func(robot.ActuatorCommand))
	Stop() error
}

// LocalController is used when no remote controller is configured. It
// ignores snapshots; commands reach the bridge through Runtime.Post, typically
// from the HTTP or websocket API.
type LocalController struct{}

func (LocalController) Start(context.Context, robot.ControllerConfig) error { return nil }
func (LocalController) Deliver(robot.SensorSnapshot)                        {}
func (LocalController) Subscribe(func(robot.ActuatorCommand))               {}
func (LocalController) Stop() error                                         { return nil }
