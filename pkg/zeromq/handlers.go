package zeromq

import (
	"encoding/json"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// ConfigHandler answers CONFIG_REQUEST with the controller configuration the
// bridge was started with.
type ConfigHandler struct {
	config robot.ControllerConfig
	logger customlog.Logger
}

// NewConfigHandler creates a new handler for configuration requests
func NewConfigHandler(cfg robot.ControllerConfig, logger customlog.Logger) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
		logger: logger,
	}
}

// HandleMessage returns a CONFIG_RESPONSE.
func (h *ConfigHandler) HandleMessage(msg ZeroMQMessage) ([]byte, error) {
	if msg.Type != MsgTypeConfigRequest {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	responseData, err := NewReply(MsgTypeConfigResponse, h.config)
	if err != nil {
		return nil, err
	}
	h.logger.Debugf("Sending configuration response (%d bytes)", len(responseData))
	return responseData, nil
}

// CommandAck is the data of the ACK sent for an accepted command.
type CommandAck struct {
	Status string `json:"status"`
}

// CommandHandler decodes ACTUATOR_COMMAND messages and hands them to the
// subscribed callback. The ACK means the command was posted, not applied.
type CommandHandler struct {
	logger customlog.Logger

	mu   sync.RWMutex
	post func(robot.ActuatorCommand)
}

// NewCommandHandler creates a handler with no subscriber.
func NewCommandHandler(logger customlog.Logger) *CommandHandler {
	return &CommandHandler{logger: logger}
}

// Subscribe sets the callback that receives decoded commands.
func (h *CommandHandler) Subscribe(fn func(robot.ActuatorCommand)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.post = fn
}

func (h *CommandHandler) HandleMessage(msg ZeroMQMessage) ([]byte, error) {
	if msg.Type != MsgTypeActuatorCommand {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}
	if len(msg.Data) == 0 {
		return nil, fmt.Errorf("%w: command without data", ErrInvalidMessage)
	}

	var cmd robot.ActuatorCommand
	if err := json.Unmarshal(msg.Data, &cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	h.mu.RLock()
	post := h.post
	h.mu.RUnlock()
	if post == nil {
		return nil, fmt.Errorf("no command subscriber")
	}

	post(cmd)
	return NewReply(MsgTypeAck, CommandAck{Status: "OK"})
}
