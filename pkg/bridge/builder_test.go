package bridge

import (
	"bytes"
	"strings"
	"testing"
	"time"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

func TestBuilderReadsAllFields(t *testing.T) {
	p := newFakeProvider()
	b := NewBuilder(p, nil, quietLogger())
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.now = func() time.Time { return stamp }

	s := b.Build(testContext(t), Tick{Seq: 7})

	if s.Tick != 7 {
		t.Errorf("Expected tick 7, got %d", s.Tick)
	}
	if !s.Timestamp.Equal(stamp) {
		t.Errorf("Expected timestamp %v, got %v", stamp, s.Timestamp)
	}
	if s.Source != "real" {
		t.Errorf("Expected source real, got %s", s.Source)
	}
	if s.LightLevel != 42 || s.Distance != 17 || !s.TouchPressed {
		t.Errorf("Unexpected sensor values: %+v", s)
	}
	if s.LeftMotorPosition != 10 || s.RightMotorPosition != -10 || s.ClawMotorPosition != 3 {
		t.Errorf("Unexpected motor positions: %+v", s)
	}
	if len(s.Defaulted) != 0 {
		t.Errorf("Expected no defaulted fields, got %v", s.Defaulted)
	}
}

func TestBuilderSubstitutesDefaults(t *testing.T) {
	p := newFakeProvider()
	p.fail(robot.FieldDistance)
	p.fail(robot.FieldTouch)

	b := NewBuilder(p, map[robot.Field]float64{robot.FieldDistance: 255}, quietLogger())
	s := b.Build(testContext(t), Tick{Seq: 1})

	if s.Distance != 255 {
		t.Errorf("Expected distance default 255, got %v", s.Distance)
	}
	if s.TouchPressed {
		t.Error("Expected touch default false")
	}
	if s.LightLevel != 42 {
		t.Errorf("Expected light to be read, got %v", s.LightLevel)
	}
	if !s.IsDefaulted(robot.FieldDistance) || !s.IsDefaulted(robot.FieldTouch) {
		t.Errorf("Expected distance and touch defaulted, got %v", s.Defaulted)
	}
	if s.IsDefaulted(robot.FieldLight) {
		t.Error("Light should not be defaulted")
	}
}

func TestBuilderLogsFailureOnlyWhenItChanges(t *testing.T) {
	var buf bytes.Buffer
	p := newFakeProvider()
	p.fail(robot.FieldTouch)
	b := NewBuilder(p, nil, customlog.NewWriterLogger("info", &buf))

	for i := uint64(1); i <= 10; i++ {
		b.Build(testContext(t), Tick{Seq: i})
	}
	if n := strings.Count(buf.String(), "read of touch failed"); n != 1 {
		t.Fatalf("Expected one failure line over 10 ticks, got %d:\n%s", n, buf.String())
	}

	p.heal(robot.FieldTouch)
	b.Build(testContext(t), Tick{Seq: 11})
	b.Build(testContext(t), Tick{Seq: 12})
	if n := strings.Count(buf.String(), "read of touch recovered"); n != 1 {
		t.Fatalf("Expected one recovery line, got %d:\n%s", n, buf.String())
	}

	p.fail(robot.FieldTouch)
	b.Build(testContext(t), Tick{Seq: 13})
	if n := strings.Count(buf.String(), "read of touch failed"); n != 2 {
		t.Errorf("Expected a new failure line after recovery, got %d", n)
	}
}
