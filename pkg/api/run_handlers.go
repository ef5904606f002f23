package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
)

const (
	defaultRunLimit = 100
	maxRunLimit     = 10000

	// currentRun names the run being recorded now.
	currentRun = "current"
)

// RunHandler serves the recorded snapshots and commands of a run.
type RunHandler struct {
	runs   RunRecorder
	logger customlog.Logger
}

// RegisterRunRoutes registers /runs/:id/snapshots and /runs/:id/commands on
// router. Both take ?limit=N, the number of most recent records to return.
func RegisterRunRoutes(router fiber.Router, runs RunRecorder, logger customlog.Logger) {
	h := &RunHandler{runs: runs, logger: logger}
	router.Get("/runs/:id/snapshots", h.handleSnapshots)
	router.Get("/runs/:id/commands", h.handleCommands)
}

func (h *RunHandler) handleSnapshots(c *fiber.Ctx) error {
	runID, limit, err := h.query(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	snapshots, err := h.runs.Store().ListSnapshots(c.UserContext(), runID, limit)
	if err != nil {
		h.logger.Errorf("Failed to list snapshots of run %s: %v", runID, err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to list snapshots")
	}
	return c.JSON(fiber.Map{
		"run_id":    runID,
		"count":     len(snapshots),
		"snapshots": snapshots,
	})
}

func (h *RunHandler) handleCommands(c *fiber.Ctx) error {
	runID, limit, err := h.query(c)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	commands, err := h.runs.Store().ListCommands(c.UserContext(), runID, limit)
	if err != nil {
		h.logger.Errorf("Failed to list commands of run %s: %v", runID, err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to list commands")
	}
	return c.JSON(fiber.Map{
		"run_id":   runID,
		"count":    len(commands),
		"commands": commands,
	})
}

func (h *RunHandler) query(c *fiber.Ctx) (string, int, error) {
	runID := c.Params("id")
	if runID == currentRun {
		runID = h.runs.RunID()
	}

	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRunLimit {
			return "", 0, fmt.Errorf("limit must be between 1 and %d", maxRunLimit)
		}
		limit = n
	}
	return runID, limit, nil
}
