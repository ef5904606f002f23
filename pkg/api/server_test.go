package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/open-teleop/robotbridge/pkg/bridge"
	"github.com/open-teleop/robotbridge/pkg/config"
	"github.com/open-teleop/robotbridge/pkg/device"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/processing"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

type fakeBridge struct {
	mu     sync.Mutex
	posted []robot.ActuatorCommand
}

func (b *fakeBridge) State() bridge.State       { return bridge.StateRunning }
func (b *fakeBridge) ProviderKind() device.Kind { return device.KindSimulated }
func (b *fakeBridge) Superseded() uint64        { return 3 }

func (b *fakeBridge) LastSnapshot() (robot.SensorSnapshot, bool) {
	return robot.SensorSnapshot{Tick: 12, Distance: 44}, true
}

func (b *fakeBridge) LastApplied() (robot.AppliedCommand, bool) {
	return robot.AppliedCommand{}, false
}

func (b *fakeBridge) Post(cmd robot.ActuatorCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.posted = append(b.posted, cmd)
}

type staticConfig struct{ cfg *config.Config }

func (s staticConfig) Config() *config.Config { return s.cfg }

type staticMetrics map[string]processing.PoolMetrics

func (m staticMetrics) Metrics() map[string]processing.PoolMetrics { return m }

func newTestServer(b *fakeBridge) Options {
	return Options{
		RobotID:  "ev3",
		RunID:    "run-1",
		State:    b,
		Commands: b,
		Configs:  staticConfig{cfg: config.Default()},
		Metrics:  staticMetrics{"console": {ProcessedCount: 5}},
		Hub:      NewSnapshotHub(quietLogger()),
		Logger:   quietLogger(),
	}
}

func quietLogger() customlog.Logger {
	return customlog.NewWriterLogger("error", io.Discard)
}

func TestHealth(t *testing.T) {
	app := NewServer(newTestServer(&fakeBridge{}))

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	app := NewServer(newTestServer(&fakeBridge{}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/status", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.State != "running" || status.Devices != "simulated" || status.RunID != "run-1" {
		t.Errorf("Unexpected status: %+v", status)
	}
	if status.LastSnapshot == nil || status.LastSnapshot.Tick != 12 {
		t.Errorf("Expected last snapshot tick 12, got %+v", status.LastSnapshot)
	}
	if status.LastApplied != nil {
		t.Errorf("Expected no applied command, got %+v", status.LastApplied)
	}
	if status.Superseded != 3 || status.Sinks["console"].ProcessedCount != 5 {
		t.Errorf("Unexpected counters: %+v", status)
	}
}

func TestGetConfigYAML(t *testing.T) {
	app := NewServer(newTestServer(&fakeBridge{}))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/config", nil))
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected YAML content type, got %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "robot_id: ev3") {
		t.Errorf("Expected robot_id in YAML, got:\n%s", body)
	}
}

func TestPostCommand(t *testing.T) {
	b := &fakeBridge{}
	app := NewServer(newTestServer(b))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"valid", `{"left_motor_speed":0.5,"right_motor_speed":-0.5,"lights":"red"}`, 202},
		{"malformed", `{"left_motor_speed":`, 400},
		{"bad lights", `{"lights":"blue"}`, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/command", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.posted) != 1 || b.posted[0].LeftMotorSpeed != 0.5 {
		t.Errorf("Expected only the valid command to be posted, got %+v", b.posted)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	app := NewServer(newTestServer(&fakeBridge{}))

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/control", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 426 {
		t.Errorf("Expected 426 Upgrade Required, got %d", resp.StatusCode)
	}
}

type fakeConn struct {
	writes [][]byte
	err    error
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestSnapshotHubBroadcast(t *testing.T) {
	hub := NewSnapshotHub(quietLogger())
	good := &fakeConn{}
	bad := &fakeConn{err: errors.New("broken pipe")}
	hub.add(good)
	hub.add(bad)

	if err := hub.Consume(robot.SensorSnapshot{Tick: 1, LightLevel: 51}); err != nil {
		t.Fatal(err)
	}

	if len(good.writes) != 1 || !strings.Contains(string(good.writes[0]), `"light_level":51`) {
		t.Errorf("Expected snapshot JSON, got %q", good.writes)
	}
	if !bad.closed || hub.Clients() != 1 {
		t.Errorf("Expected failing client to be dropped, clients=%d", hub.Clients())
	}

	hub.remove(good)
	if hub.Clients() != 0 {
		t.Errorf("Expected no clients, got %d", hub.Clients())
	}
}
