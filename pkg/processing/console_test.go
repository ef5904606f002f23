package processing

import (
	"bytes"
	"strings"
	"testing"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

func TestConsoleSinkToggle(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(customlog.NewWriterLogger("info", &buf), false)

	if err := s.Consume(robot.SensorSnapshot{Tick: 1}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing at info level with printing off, got %q", buf.String())
	}

	s.SetPrint(true)
	if err := s.Consume(robot.SensorSnapshot{Tick: 2, Distance: 31}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"tick":2`) || !strings.Contains(buf.String(), `"distance":31`) {
		t.Errorf("Expected snapshot JSON in output, got %q", buf.String())
	}
}
