package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

const writeWait = 2 * time.Second

// wsURL builds the websocket URL for path on a bridge at addr (host:port).
func wsURL(addr, path string) string {
	u := url.URL{Scheme: "ws", Host: addr, Path: path}
	return u.String()
}

// sendCommand posts one command over /ws/control and closes the connection.
func sendCommand(addr string, cmd robot.ActuatorCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(addr, "/ws/control"), nil)
	if err != nil {
		return fmt.Errorf("dial control: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
	return nil
}

// watch prints snapshots from /ws/inputs to out until limit snapshots were
// read (limit <= 0 means forever) or the connection ends.
func watch(addr string, limit int, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(addr, "/ws/inputs"), nil)
	if err != nil {
		return fmt.Errorf("dial inputs: %w", err)
	}
	defer conn.Close()

	for n := 0; limit <= 0 || n < limit; n++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read snapshot: %w", err)
		}

		var s robot.SensorSnapshot
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		fmt.Fprintln(out, formatSnapshot(s))
	}
	return nil
}

func formatSnapshot(s robot.SensorSnapshot) string {
	line := fmt.Sprintf("#%d %s light=%.0f distance=%.0f touch=%t left=%.0f right=%.0f claw=%.0f",
		s.Tick, s.Source, s.LightLevel, s.Distance, s.TouchPressed,
		s.LeftMotorPosition, s.RightMotorPosition, s.ClawMotorPosition)
	if len(s.Defaulted) > 0 {
		line += fmt.Sprintf(" defaulted=%v", s.Defaulted)
	}
	return line
}
