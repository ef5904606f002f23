// Package api serves the bridge's HTTP and WebSocket surface.
package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
)

// Options wires the server to the running bridge. Hub, Metrics and Runs may
// be nil.
type Options struct {
	RobotID  string
	RunID    string
	State    BridgeState
	Commands CommandPoster
	Configs  ConfigSource
	Metrics  MetricsSource
	Runs     RunRecorder
	Hub      *SnapshotHub
	Logger   customlog.Logger
}

// NewServer builds the Fiber app with every route registered.
func NewServer(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "robotbridge",
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "robotbridge",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1 := app.Group("/api/v1")
	RegisterBridgeRoutes(v1, opts)
	RegisterConfigRoutes(v1, opts.Configs, opts.Logger)
	if opts.Runs != nil {
		RegisterRunRoutes(v1, opts.Runs, opts.Logger)
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	if opts.Hub != nil {
		app.Get("/ws/inputs", websocket.New(func(c *websocket.Conn) {
			InputsWebSocketHandler(c, opts.Hub, opts.Logger)
		}))
	}
	app.Get("/ws/control", websocket.New(func(c *websocket.Conn) {
		ControlWebSocketHandler(c, opts.Commands, opts.Logger)
	}))

	opts.Logger.Infof("Registered HTTP API under /api/v1 and websockets under /ws")
	return app
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
