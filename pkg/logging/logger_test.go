package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "test",
		JSONFormat:  true,
		Output:      buf,
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, "audiencia", cfg.ServiceName)
	assert.False(t, cfg.JSONFormat)
	assert.Equal(t, os.Stderr, cfg.Output)
}

func TestNewLogger_NilConfig(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSONLogger(buf, LevelDebug).Info("transcript loaded", F("records", 12))

	out := decodeLine(t, buf)
	assert.Equal(t, "transcript loaded", out["message"])
	assert.Equal(t, "test", out["service_name"])
	assert.Equal(t, float64(12), out["records"])
	assert.Equal(t, "info", out["level"])
	assert.Contains(t, out, "time")
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelInfo).With(F("component", "ingest"), F("strict", false))
	log.Info("row skipped")

	out := decodeLine(t, buf)
	assert.Equal(t, "ingest", out["component"])
	assert.Equal(t, false, out["strict"])
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-456")
	ctx = context.WithValue(ctx, SessionIDKey, "sess-1")

	newJSONLogger(buf, LevelInfo).WithContext(ctx).Info("request")

	out := decodeLine(t, buf)
	assert.Equal(t, "req-456", out["request_id"])
	assert.Equal(t, "sess-1", out["session_id"])
	assert.NotContains(t, out, "trace_id")
}

func TestLogger_FieldTypes(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSONLogger(buf, LevelInfo).Info("types",
		F("string_field", "hello"),
		F("int64_field", int64(9999999999)),
		F("float_field", 3.14),
		F("duration_field", 5*time.Second),
		F("time_field", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)),
		Err(errors.New("test error")),
	)

	out := decodeLine(t, buf)
	assert.Equal(t, "hello", out["string_field"])
	assert.Equal(t, float64(9999999999), out["int64_field"])
	assert.Equal(t, 3.14, out["float_field"])
	assert.Equal(t, "test error", out["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelWarn)

	log.Debug("debug - hidden")
	log.Info("info - hidden")
	log.Warn("warn - shown")
	log.Error("error - shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "warn - shown")
	assert.Contains(t, lines[1], "error - shown")
}

func TestLogger_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(&Config{Level: LevelInfo, ServiceName: "cli", NoColor: true, Output: buf})

	log.Info("console output test", F("speaker", "Juiz"))

	assert.Contains(t, buf.String(), "console output test")
	assert.Contains(t, buf.String(), "INF")
	assert.Contains(t, buf.String(), "speaker=Juiz")
}

func TestConfigFor_NonTerminalUsesJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()

	cfg := ConfigFor(f, LevelDebug, false)
	assert.True(t, cfg.JSONFormat)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, LevelDebug, cfg.Level)
}

func TestMustGlobal(t *testing.T) {
	old := global
	global = nil
	defer func() { global = old }()

	assert.NotNil(t, MustGlobal())

	buf := &bytes.Buffer{}
	SetGlobal(newJSONLogger(buf, LevelInfo))
	MustGlobal().Info("global logger test")
	assert.Contains(t, buf.String(), "global logger test")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("ignored")
	assert.Equal(t, log, log.With(F("a", 1)))
	assert.Equal(t, log, log.WithContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{" warn ", "warn"},
		{"error", "error"},
		{"invalid", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input).String())
		})
	}
}
