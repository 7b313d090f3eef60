package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/goreview/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", Debug},
		{"debug", Debug},
		{"trace", Debug},
		{"INFO", Info},
		{"", Info},
		{" warn ", Warn},
		{"WARNING", Warn},
		{"ERROR", Error},
		{"FATAL", Fatal},
		{"verbose", Info},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", Debug.String())
	assert.Equal(t, "WARN", Warn.String())
	assert.Equal(t, "INFO", LogLevel(42).String())
}

func TestLoggerService_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLoggerService("test", config.LogServerConfig{
		Level:      "WARN",
		NoColor:    true,
		NoTerminal: true,
	}, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn %s", "message")
	logger.Error("error %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error 42")
	assert.Contains(t, out, "[test]")
}

func TestLoggerService_Named(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLoggerService("goreview", config.LogServerConfig{
		Level:      "DEBUG",
		NoTerminal: true,
	}, &buf)

	logger.Named("comment").Debug("hello")

	assert.Contains(t, buf.String(), "[goreview/comment]")
	assert.Contains(t, buf.String(), "hello")
}

func TestLoggerService_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLoggerService("goreview", config.LogServerConfig{
		Level: "INFO",
		JSON:  true,
	}, &buf)

	logger.Info("loaded %d groups", 3)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "goreview", entry.Service)
	assert.Equal(t, "loaded 3 groups", entry.Message)
}
