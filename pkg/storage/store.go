// Package storage records the snapshots and actuator applications of a run.
package storage

import (
	"context"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Store persists run data. Records are grouped by run id.
type Store interface {
	Init(ctx context.Context) error
	SaveSnapshot(ctx context.Context, runID string, snapshot robot.SensorSnapshot) error
	SaveCommand(ctx context.Context, runID string, applied robot.AppliedCommand) error
	// ListSnapshots returns up to limit of the most recent snapshots in tick
	// order. A limit <= 0 returns all of them.
	ListSnapshots(ctx context.Context, runID string, limit int) ([]robot.SensorSnapshot, error)
	// ListCommands returns up to limit of the most recent applications in the
	// order they were applied.
	ListCommands(ctx context.Context, runID string, limit int) ([]robot.AppliedCommand, error)
}
