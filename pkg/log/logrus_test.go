package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSimpleFormatterLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("info", &buf)

	logger.WithField("tick", 7).WithField("provider", "simulated").Warnf("read failed for %s", "distance")

	line := buf.String()
	if !strings.Contains(line, "[WAR] read failed for distance provider=simulated tick=7") {
		t.Errorf("Unexpected log line: %q", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("Expected trailing newline, got %q", line)
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("info", &buf)

	logger.Debugf("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected debug to be filtered at info level, got %q", buf.String())
	}

	if err := logger.SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	logger.Debugf("visible")
	if !strings.Contains(buf.String(), "[DEB] visible") {
		t.Errorf("Expected debug line after SetLevel, got %q", buf.String())
	}

	if err := logger.SetLevel("loud"); err == nil {
		t.Errorf("Expected error for invalid level")
	}
}

func TestLogFileCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logger, err := NewLogrusLogger("info", dir)
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}
	logger.Infof("hello file")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[INF] hello file") {
		t.Errorf("Log file missing entry: %q", string(data))
	}
}
