package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

var upgrader = websocket.Upgrader{}

func hostOf(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestSendCommand(t *testing.T) {
	received := make(chan robot.ActuatorCommand, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/control" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var cmd robot.ActuatorCommand
		if err := conn.ReadJSON(&cmd); err == nil {
			received <- cmd
		}
	}))
	defer srv.Close()

	red := robot.LightsRed
	if err := sendCommand(hostOf(t, srv), robot.ActuatorCommand{LeftMotorSpeed: 0.4, RightMotorSpeed: 0.6, Lights: &red}); err != nil {
		t.Fatalf("sendCommand failed: %v", err)
	}

	select {
	case cmd := <-received:
		if cmd.LeftMotorSpeed != 0.4 || cmd.RightMotorSpeed != 0.6 || cmd.Lights == nil || *cmd.Lights != robot.LightsRed {
			t.Errorf("Unexpected command: %+v", cmd)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Server did not receive the command")
	}
}

func TestWatchPrintsSnapshots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := uint64(1); i <= 3; i++ {
			_ = conn.WriteJSON(robot.SensorSnapshot{Tick: i, Source: "simulated", Distance: 255, Defaulted: []robot.Field{robot.FieldDistance}})
		}
		// Wait for the client to hang up.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := watch(hostOf(t, srv), 2, &out); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "#1 simulated") || !strings.Contains(lines[1], "defaulted=[distance]") {
		t.Errorf("Unexpected output: %q", lines)
	}
}

func TestParseDrive(t *testing.T) {
	cmd, err := parseDrive([]string{"-left", "0.5", "-right", "-0.5", "-lights", "amber"})
	if err != nil {
		t.Fatalf("parseDrive failed: %v", err)
	}
	if cmd.LeftMotorSpeed != 0.5 || cmd.RightMotorSpeed != -0.5 || *cmd.Lights != robot.LightsAmber {
		t.Errorf("Unexpected command: %+v", cmd)
	}

	if _, err := parseDrive([]string{"-lights", "pink"}); err == nil {
		t.Error("Expected error for unknown lights state")
	}
}
