package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_ComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelInfo).WithOutput(&buf).WithComponent("Trainer")

	logger.Info("fitted %d pipelines", 2)

	assert.Contains(t, buf.String(), "[INFO] [Trainer] fitted 2 pipelines")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn).WithOutput(&buf)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown")
	assert.Contains(t, out, "[ERROR] also shown")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR":   LogLevelError,
		"warn":    LogLevelWarn,
		"WARNING": LogLevelWarn,
		"INFO":    LogLevelInfo,
		" debug ": LogLevelDebug,
		"TRACE":   LogLevelTrace,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), "input %q", input)
	}
}

func TestLogger_CopiesShareLevel(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLogger(LogLevelError)
	child := parent.WithOutput(&buf).WithComponent("Intake")

	child.Info("before")
	parent.SetLevel(LogLevelInfo)
	child.Info("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "[INFO] [Intake] after")
}
