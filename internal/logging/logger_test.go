package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelInfo, Output: &buf})

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message logged at info level")
	}
	if !strings.Contains(out, "[INFO] shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("device found", "vid", "8086", "pid", "E004")

	out := buf.String()
	if !strings.Contains(out, "vid=8086") || !strings.Contains(out, "pid=E004") {
		t.Errorf("key-value pairs missing: %q", out)
	}
}

func TestLoggerFormatted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Warnf("retry %d of %d", 1, 3)

	if !strings.Contains(buf.String(), "[WARN] retry 1 of 3") {
		t.Errorf("formatted message missing: %q", buf.String())
	}
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelError, Output: &buf}))

	Default().Info("suppressed")
	Default().Error("surfaced")

	out := buf.String()
	if strings.Contains(out, "suppressed") || !strings.Contains(out, "surfaced") {
		t.Errorf("default logger output wrong: %q", out)
	}
}
