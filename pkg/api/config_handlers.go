package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configs ConfigSource
	logger  customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configs ConfigSource, logger customlog.Logger) *ConfigHandler {
	if configs == nil {
		panic("ConfigSource cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configs: configs,
		logger:  logger,
	}
}

// RegisterConfigRoutes registers the configuration API endpoints.
func RegisterConfigRoutes(router fiber.Router, configs ConfigSource, logger customlog.Logger) {
	h := NewConfigHandler(configs, logger)
	router.Get("/config", h.handleGetConfig)
	logger.Debugf("Registered configuration API endpoint")
}

// handleGetConfig returns the active configuration as YAML.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	yamlData, err := h.configs.Config().YAML()
	if err != nil {
		h.logger.Errorf("Failed to render configuration YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}
