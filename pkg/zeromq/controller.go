// Package zeromq exposes the bridge to a remote controller: snapshots are
// published on a PUB socket and commands arrive on a REP socket.
package zeromq

import (
	"context"
	"fmt"
	"sync"

	"github.com/open-teleop/robotbridge/pkg/config"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/processing"
	"github.com/open-teleop/robotbridge/pkg/robot"
	"github.com/open-teleop/robotbridge/pkg/wire"
)

// RemoteController is a controller reached over ZeroMQ.
type RemoteController struct {
	cfg       config.ZeroMQConfig
	queueSize int
	logger    customlog.Logger

	commands *CommandHandler

	mu        sync.Mutex
	service   *Service
	publisher *processing.SinkPool
}

// NewRemoteController creates a controller; sockets are bound by Start.
func NewRemoteController(cfg config.ZeroMQConfig, queueSize int, logger customlog.Logger) *RemoteController {
	return &RemoteController{
		cfg:       cfg,
		queueSize: queueSize,
		logger:    logger,
		commands:  NewCommandHandler(logger),
	}
}

// Start binds the sockets and serves requests. cfg is returned unchanged to
// CONFIG_REQUEST.
func (c *RemoteController) Start(ctx context.Context, cfg robot.ControllerConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service != nil {
		return fmt.Errorf("remote controller already started")
	}

	service, err := NewService(c.cfg, c.logger)
	if err != nil {
		return err
	}
	service.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(cfg, c.logger))
	service.RegisterHandler(MsgTypeActuatorCommand, c.commands)

	if err := service.Start(); err != nil {
		service.Stop()
		return err
	}

	c.publisher = processing.NewSinkPool(&snapshotPublisher{service: service, topic: c.cfg.SnapshotTopic}, c.queueSize, c.logger)
	c.publisher.Start()
	c.service = service
	return nil
}

// Deliver queues snapshot for publishing and never blocks.
func (c *RemoteController) Deliver(snapshot robot.SensorSnapshot) {
	c.mu.Lock()
	publisher := c.publisher
	c.mu.Unlock()

	if publisher != nil {
		publisher.Enqueue(snapshot)
	}
}

// Subscribe sets the callback for commands received from the remote side.
func (c *RemoteController) Subscribe(fn func(robot.ActuatorCommand)) {
	c.commands.Subscribe(fn)
}

// Endpoints returns the bound request and publish endpoints, or empty
// strings before Start.
func (c *RemoteController) Endpoints() (request, publish string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.service == nil {
		return "", ""
	}
	return c.service.Endpoints()
}

// Metrics returns the snapshot publisher metrics.
func (c *RemoteController) Metrics() processing.PoolMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publisher == nil {
		return processing.PoolMetrics{}
	}
	return c.publisher.Metrics()
}

// Stop drains the publish queue and closes the sockets.
func (c *RemoteController) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.service == nil {
		return nil
	}
	c.publisher.Stop()
	c.service.Stop()
	c.service = nil
	c.publisher = nil
	return nil
}

// snapshotPublisher publishes FlatBuffers-encoded snapshots under one topic.
type snapshotPublisher struct {
	service *Service
	topic   string
}

func (p *snapshotPublisher) Name() string { return "zeromq" }

func (p *snapshotPublisher) Consume(snapshot robot.SensorSnapshot) error {
	return p.service.PublishMessage(p.topic, wire.EncodeSnapshot(snapshot))
}
