package api

import (
	"encoding/json"
	"errors"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

const wsWriteTimeout = time.Second

// wsConn is the subset of a websocket connection the hub writes to.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// SnapshotHub streams snapshots to /ws/inputs clients. It is a fan-out sink,
// so a slow client only delays the hub's own queue.
type SnapshotHub struct {
	logger  customlog.Logger
	mu      sync.Mutex
	clients map[wsConn]struct{}
}

// NewSnapshotHub creates an empty hub.
func NewSnapshotHub(logger customlog.Logger) *SnapshotHub {
	return &SnapshotHub{
		logger:  logger,
		clients: make(map[wsConn]struct{}),
	}
}

func (h *SnapshotHub) Name() string { return "websocket" }

// Consume writes snapshot to every client. A client whose write fails is
// dropped.
func (h *SnapshotHub) Consume(snapshot robot.SensorSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return nil
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warnf("Dropping inputs websocket client: %v", err)
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (h *SnapshotHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *SnapshotHub) add(conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *SnapshotHub) remove(conn wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// InputsWebSocketHandler registers the connection with the hub and blocks
// until the client goes away.
func InputsWebSocketHandler(conn *websocket.Conn, hub *SnapshotHub, logger customlog.Logger) {
	logger.Infof("Inputs WebSocket connected: %s", conn.RemoteAddr())
	hub.add(conn)
	defer hub.remove(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			logClose(logger, "Inputs", err)
			break
		}
	}
	logger.Infof("Inputs WebSocket disconnected: %s", conn.RemoteAddr())
}

// ControlWebSocketHandler reads JSON ActuatorCommands and posts them.
func ControlWebSocketHandler(conn *websocket.Conn, poster CommandPoster, logger customlog.Logger) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			logClose(logger, "Control", err)
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		var cmd robot.ActuatorCommand
		if err := json.Unmarshal(msg, &cmd); err != nil {
			logger.Warnf("Failed to unmarshal command from WS: %v. Message: %s", err, string(msg))
			continue
		}
		if err := cmd.Validate(); err != nil {
			logger.Warnf("Rejected command from WS: %v", err)
			continue
		}

		poster.Post(cmd)
		logger.Debugf("Command posted via WS: left=%.2f right=%.2f", cmd.LeftMotorSpeed, cmd.RightMotorSpeed)
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

func logClose(logger customlog.Logger, name string, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
		logger.Errorf("%s WS read error: %v", name, err)
		return
	}
	if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
		logger.Infof("%s WS connection closed: %v", name, err)
		return
	}
	logger.Infof("%s WS connection closed normally.", name)
}
