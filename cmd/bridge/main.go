package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/robotbridge/domain/diagnostic"
	"github.com/open-teleop/robotbridge/pkg/api"
	"github.com/open-teleop/robotbridge/pkg/bridge"
	"github.com/open-teleop/robotbridge/pkg/config"
	"github.com/open-teleop/robotbridge/pkg/device"
	"github.com/open-teleop/robotbridge/pkg/device/ev3dev"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/processing"
	"github.com/open-teleop/robotbridge/pkg/storage"
	"github.com/open-teleop/robotbridge/pkg/zeromq"
)

const shutdownTimeout = 5 * time.Second

// staticConfig serves the startup configuration when there is no file to
// watch.
type staticConfig struct{ cfg *config.Config }

func (s staticConfig) Config() *config.Config { return s.cfg }

func main() {
	defaultDir := os.Getenv("BRIDGE_CONFIG_DIR")
	if defaultDir == "" {
		defaultDir = "./config"
	}
	configDir := flag.String("config", defaultDir, "directory containing "+config.FileName)
	flag.Parse()

	cfg, cfgPath, err := config.LoadFromDir(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cfgPath == "" {
		logger.Infof("No %s in %s, using defaults", config.FileName, *configDir)
	} else {
		logger.Infof("Loaded configuration from %s (version %s)", cfgPath, cfg.Version)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := device.Select(ctx, ev3dev.New(cfg.Devices.SysfsRoot), cfg.Devices, logger)
	if err != nil {
		logger.Fatalf("Device selection failed: %v", err)
	}

	fanout := processing.NewFanout(cfg.Processing.QueueSize, logger)
	console := processing.NewConsoleSink(logger, cfg.Console.PrintSnapshots)
	hub := api.NewSnapshotHub(logger)
	mustRegister(fanout, console, logger)
	mustRegister(fanout, hub, logger)

	var recorder *storage.Recorder
	if cfg.Storage.Kind != config.StorageNone {
		store, err := storage.NewStore(cfg.Storage)
		if err != nil {
			logger.Fatalf("Failed to create %s store: %v", cfg.Storage.Kind, err)
		}
		if err := store.Init(ctx); err != nil {
			logger.Fatalf("Failed to initialize %s store: %v", cfg.Storage.Kind, err)
		}
		defer func() {
			if err := storage.CloseIfSupported(store); err != nil {
				logger.Errorf("Error closing store: %v", err)
			}
		}()
		recorder = storage.NewRecorder(store, logger)
		mustRegister(fanout, recorder, logger)
		logger.Infof("Recording run %s to %s store", recorder.RunID(), cfg.Storage.Kind)
	}

	var controller bridge.Controller = bridge.LocalController{}
	if cfg.Controller.Kind == config.ControllerZeroMQ {
		controller = zeromq.NewRemoteController(cfg.ZeroMQ, cfg.Processing.QueueSize, logger)
	}

	rt := bridge.New(bridge.Options{
		Provider:         provider,
		Controller:       controller,
		ControllerConfig: cfg.PassThrough(),
		Publisher:        fanout,
		Period:           cfg.Sampling.Period,
		Speed:            cfg.Actuators.Speed,
		Defaults:         cfg.SensorDefaults(),
		Logger:           logger,
	})
	if recorder != nil {
		rt.AddObserver(recorder)
	}

	var configs api.ConfigSource = staticConfig{cfg: cfg}
	if cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, cfg, logger)
		if err != nil {
			logger.Warnf("Config hot reload disabled: %v", err)
		} else {
			watcher.OnChange(func(oldConfig, newConfig *config.Config) {
				if err := logger.SetLevel(newConfig.Logging.Level); err != nil {
					logger.Warnf("Ignoring log level %q: %v", newConfig.Logging.Level, err)
				}
				console.SetPrint(newConfig.Console.PrintSnapshots)
			})
			if err := watcher.Start(); err != nil {
				logger.Warnf("Config hot reload disabled: %v", err)
			} else {
				defer watcher.Stop()
				configs = watcher
			}
		}
	}

	runID := ""
	if recorder != nil {
		runID = recorder.RunID()
	}

	var server *fiber.App
	if cfg.Server.Enabled {
		opts := api.Options{
			RobotID:  cfg.RobotID,
			RunID:    runID,
			State:    rt,
			Commands: rt,
			Configs:  configs,
			Metrics:  fanout,
			Hub:      hub,
			Logger:   logger,
		}
		if recorder != nil {
			opts.Runs = recorder
		}
		server = api.NewServer(opts)
		server.Get("/api/v1/diagnostics", diagnostic.NewDiagnosticService(cfg.RobotID, provider).GetMetricsHandler)

		go func() {
			addr := ":" + strconv.Itoa(cfg.Server.HTTPPort)
			logger.Infof("HTTP server starting on %s", addr)
			if err := server.Listen(addr); err != nil {
				logger.Errorf("HTTP server stopped: %v", err)
			}
		}()
	}

	if err := rt.Run(ctx); err != nil {
		logger.Errorf("Bridge stopped with error: %v", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Errorf("HTTP server forced to shutdown: %v", err)
		}
		cancel()
	}
	if recorder != nil {
		recorder.Close()
	}

	logger.Infof("Bridge exited")
}

func mustRegister(f *processing.Fanout, sink processing.Sink, logger customlog.Logger) {
	if err := f.Register(sink); err != nil {
		logger.Fatalf("Failed to register %s sink: %v", sink.Name(), err)
	}
}
