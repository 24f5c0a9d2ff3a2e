package telemetry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithLevel(LevelWarn))

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
	assert.Contains(t, out, "error message")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithFormat(FormatJSON), WithName("handshake"))

	l.Info("negotiated", Fields{"cipher_suite": "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "negotiated", entry["msg"])
	assert.Equal(t, "handshake", entry["logger"])
	assert.Equal(t, "TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384", entry["cipher_suite"])
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(WithOutput(&buf), WithFormat(FormatJSON))
	l := base.With(Fields{"conn": "1"}).With(Fields{"state": "ServerHello"})

	l.Info("step")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "1", entry["conn"])
	assert.Equal(t, "ServerHello", entry["state"])
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf), WithName("tls12hs")).Named("kex")

	l.Info("derive")
	assert.Contains(t, buf.String(), "[tls12hs.kex]")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"Warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelSilent,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestNullLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NullLogger()
	l.out = &buf
	l.Error("never seen")
	assert.Zero(t, buf.Len())
}

func TestFieldOrderingStable(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithOutput(&buf))
	l.Info("m", Fields{"b": 2, "a": 1, "c": 3})
	line := buf.String()
	ai, bi, ci := strings.Index(line, "a=1"), strings.Index(line, "b=2"), strings.Index(line, "c=3")
	assert.True(t, ai < bi && bi < ci, "fields not sorted: %q", line)
}
