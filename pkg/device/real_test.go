package device

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/open-teleop/robotbridge/pkg/config"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

func bindReal(t *testing.T, drv *fakeDriver) *RealDevices {
	t.Helper()
	cfg := devicesConfig(config.DeviceModeAuto)
	set, required := Bind(drv, cfg, quietLogger())
	return NewRealDevices(set, required, 20*time.Millisecond, quietLogger())
}

func TestRealReadAllFields(t *testing.T) {
	r := bindReal(t, newFakeDriver())

	reading := r.Read(context.Background())
	if len(reading.Errors) != 0 {
		t.Fatalf("Unexpected read errors: %v", reading.Errors)
	}
	want := map[robot.Field]float64{
		robot.FieldLight:         42,
		robot.FieldDistance:      17,
		robot.FieldTouch:         1,
		robot.FieldLeftPosition:  360,
		robot.FieldRightPosition: -90,
		robot.FieldClawPosition:  15,
	}
	for f, v := range want {
		if reading.Values[f] != v {
			t.Errorf("Field %s = %v, want %v", f, reading.Values[f], v)
		}
	}
}

func TestRealReadFailuresAreReported(t *testing.T) {
	drv := newFakeDriver()
	drv.sensors["distance"].err = errors.New("i2c nack")
	drv.sensors["light"].delay = 200 * time.Millisecond
	delete(drv.sensors, "touch")

	r := bindReal(t, drv)
	reading := r.Read(context.Background())

	if _, ok := reading.Values[robot.FieldDistance]; ok {
		t.Errorf("Failed distance should not have a value")
	}
	if reading.Errors[robot.FieldDistance] == nil {
		t.Errorf("Expected distance error")
	}
	if !errors.Is(reading.Errors[robot.FieldLight], ErrTimeout) {
		t.Errorf("Expected light timeout, got %v", reading.Errors[robot.FieldLight])
	}
	if !errors.Is(reading.Errors[robot.FieldTouch], ErrNotConnected) {
		t.Errorf("Expected touch not connected, got %v", reading.Errors[robot.FieldTouch])
	}
	if reading.Values[robot.FieldLeftPosition] != 360 {
		t.Errorf("Other fields should still be read")
	}
}

func TestRealApply(t *testing.T) {
	drv := newFakeDriver()
	r := bindReal(t, drv)
	red := robot.LightsRed

	if err := r.Apply(context.Background(), robot.MotorOutput{Left: 100, Right: -100, Lights: &red}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := drv.motors["left_motor"].runs; len(got) != 1 || got[0] != 100 {
		t.Errorf("Left motor runs = %v", got)
	}
	if got := drv.motors["right_motor"].runs; len(got) != 1 || got[0] != -100 {
		t.Errorf("Right motor runs = %v", got)
	}
	if drv.lights.state != robot.LightsRed {
		t.Errorf("Lights = %s, want red", drv.lights.state)
	}

	if err := r.Apply(context.Background(), robot.MotorOutput{}); err != nil {
		t.Fatalf("Apply stop failed: %v", err)
	}
	if drv.motors["left_motor"].stops != 1 || drv.motors["right_motor"].stops != 1 {
		t.Errorf("Zero speed should stop both motors")
	}
}

func TestRealApplyJoinsErrors(t *testing.T) {
	drv := newFakeDriver()
	drv.motors["left_motor"].runErr = errors.New("stalled")
	r := bindReal(t, drv)

	err := r.Apply(context.Background(), robot.MotorOutput{Left: 10, Right: 10})
	if err == nil || !strings.Contains(err.Error(), "left motor: stalled") {
		t.Fatalf("Expected joined left motor error, got %v", err)
	}
	if len(drv.motors["right_motor"].runs) != 1 {
		t.Errorf("Right motor should still be driven after left failure")
	}
}

func TestRealProbeNamesMissing(t *testing.T) {
	drv := newFakeDriver()
	drv.sensors["light"].connected = false
	delete(drv.motors, "left_motor")

	err := bindReal(t, drv).Probe(context.Background())
	if !errors.Is(err, ErrDevicesUnavailable) {
		t.Fatalf("Expected ErrDevicesUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "light") || !strings.Contains(err.Error(), "left_motor") {
		t.Errorf("Probe error should name missing devices: %v", err)
	}
}

func TestRealStopRunsAfterStalledWrite(t *testing.T) {
	drv := newFakeDriver()
	drv.motors["left_motor"].runDelay = 150 * time.Millisecond
	r := bindReal(t, drv)
	ctx := context.Background()

	err := r.Apply(ctx, robot.MotorOutput{Left: 100, Right: 100})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected left motor timeout, got %v", err)
	}
	// Queued behind the stalled run, so it cannot confirm within the timeout.
	if err := r.Apply(ctx, robot.MotorOutput{}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected stop to wait behind the stalled run, got %v", err)
	}

	left := drv.motors["left_motor"]
	deadline := time.Now().Add(time.Second)
	for {
		runs, stops, state := left.snapshot()
		if stops == 1 {
			if state != "stop" || len(runs) != 1 || runs[0] != 100 {
				t.Fatalf("Expected run then stop, got runs=%v state=%q", runs, state)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Stop never reached the motor: runs=%v state=%q", runs, state)
		}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(50 * time.Millisecond)
	if _, _, state := left.snapshot(); state != "stop" {
		t.Errorf("Motor final state %q, want stop", state)
	}
}

func TestRealNewerWriteReplacesWaitingOne(t *testing.T) {
	drv := newFakeDriver()
	drv.motors["left_motor"].runDelay = 80 * time.Millisecond
	r := bindReal(t, drv)
	ctx := context.Background()

	for _, speed := range []int{50, 60, 70} {
		_ = r.Apply(ctx, robot.MotorOutput{Left: speed, Right: speed})
	}

	left := drv.motors["left_motor"]
	deadline := time.Now().Add(time.Second)
	for {
		runs, _, _ := left.snapshot()
		if len(runs) == 2 {
			if runs[0] != 50 || runs[1] != 70 {
				t.Fatalf("Expected runs [50 70], got %v", runs)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected two runs, got %v", runs)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRealReadSkipsStalledSensor(t *testing.T) {
	drv := newFakeDriver()
	light := drv.sensors["light"]
	light.delay = 100 * time.Millisecond
	r := bindReal(t, drv)
	ctx := context.Background()

	first := r.Read(ctx)
	if !errors.Is(first.Errors[robot.FieldLight], ErrTimeout) {
		t.Fatalf("Expected light timeout, got %v", first.Errors[robot.FieldLight])
	}
	for i := 0; i < 5; i++ {
		reading := r.Read(ctx)
		if !errors.Is(reading.Errors[robot.FieldLight], ErrBusy) {
			t.Fatalf("Expected light busy, got %v", reading.Errors[robot.FieldLight])
		}
		if reading.Values[robot.FieldDistance] != 17 {
			t.Errorf("Other sensors should still be read")
		}
	}
	if n := light.calls.Load(); n != 1 {
		t.Errorf("Expected one call to the stalled sensor, got %d", n)
	}

	deadline := time.Now().Add(time.Second)
	for lightPending(r) {
		if time.Now().After(deadline) {
			t.Fatal("Stalled light call never returned")
		}
		time.Sleep(5 * time.Millisecond)
	}
	light.delay = 0
	if reading := r.Read(ctx); reading.Values[robot.FieldLight] != 42 {
		t.Errorf("Expected light to recover, got %v", reading.Errors[robot.FieldLight])
	}
}

func lightPending(r *RealDevices) bool {
	for _, st := range r.Status() {
		if st.Name == "light" {
			return st.Pending
		}
	}
	return false
}

func TestRealStatusUsesLastOutcome(t *testing.T) {
	drv := newFakeDriver()
	drv.sensors["distance"].err = errors.New("i2c nack")
	r := bindReal(t, drv)
	r.Read(context.Background())

	byName := map[string]HandleStatus{}
	for _, st := range r.Status() {
		byName[st.Name] = st
	}
	if len(byName) != 7 {
		t.Fatalf("Expected 7 handles, got %d", len(byName))
	}
	if d := byName["distance"]; d.Connected || d.LastError != "i2c nack" {
		t.Errorf("Unexpected distance status: %+v", d)
	}
	if l := byName["light"]; !l.Connected || l.LastCall.IsZero() {
		t.Errorf("Unexpected light status: %+v", l)
	}
	if drv.sensors["light"].calls.Load() != 1 {
		t.Errorf("Status must not call the device")
	}
}

func TestLaneCall(t *testing.T) {
	ctx := context.Background()

	l := &lane{}
	v, err := readLane(ctx, l, 50*time.Millisecond, func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("Expected 7, got %v, %v", v, err)
	}

	_, err = readLane(ctx, &lane{}, 0, func() (int, error) { panic("boom") })
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("Expected panic to become an error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = readLane(cancelled, &lane{}, time.Second, func() (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
