package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// BridgeHandler serves status and command endpoints.
type BridgeHandler struct {
	robotID string
	runID   string
	state   BridgeState
	poster  CommandPoster
	metrics MetricsSource
	logger  customlog.Logger
}

// RegisterBridgeRoutes registers /status and /command on router. metrics may
// be nil.
func RegisterBridgeRoutes(router fiber.Router, opts Options) {
	h := &BridgeHandler{
		robotID: opts.RobotID,
		runID:   opts.RunID,
		state:   opts.State,
		poster:  opts.Commands,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	router.Get("/status", h.handleStatus)
	router.Post("/command", h.handleCommand)
}

func (h *BridgeHandler) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		RobotID:    h.robotID,
		RunID:      h.runID,
		State:      h.state.State().String(),
		Devices:    string(h.state.ProviderKind()),
		Superseded: h.state.Superseded(),
	}
	if s, ok := h.state.LastSnapshot(); ok {
		resp.LastSnapshot = &s
	}
	if a, ok := h.state.LastApplied(); ok {
		resp.LastApplied = &a
	}
	if h.metrics != nil {
		resp.Sinks = h.metrics.Metrics()
	}
	return c.JSON(resp)
}

// handleCommand accepts one ActuatorCommand as JSON. 202 means the command
// was posted; a later command may supersede it before it is applied.
func (h *BridgeHandler) handleCommand(c *fiber.Ctx) error {
	var cmd robot.ActuatorCommand
	if err := c.BodyParser(&cmd); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid command: %v", err),
		})
	}
	if err := cmd.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid command: %v", err),
		})
	}

	h.poster.Post(cmd)
	h.logger.Debugf("Command posted via HTTP: left=%.2f right=%.2f", cmd.LeftMotorSpeed, cmd.RightMotorSpeed)
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}
