package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/bnema/exati-cli/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEntryShape(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "info"}, &out)
	require.NoError(t, err)

	log.With("component", "application.orchestrator").Info("batch started", "run_id", "42", "occurrences", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "batch started", entry["msg"])
	assert.Equal(t, "application.orchestrator", entry["component"])
	assert.Equal(t, "42", entry["run_id"])
	assert.EqualValues(t, 3, entry["occurrences"])
}

func TestLevelFiltering(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	require.NoError(t, err)

	log.Info("ignored")
	assert.Empty(t, strings.TrimSpace(out.String()))

	log.Error("kept")
	assert.Contains(t, out.String(), "kept")
}

func TestTextFormatUsesPrettyHandler(t *testing.T) {
	unsetLoggingEnv(t)

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "text", Level: "debug"}, &out)
	require.NoError(t, err)

	log.Debug("request excluded", "request_id", 991)
	assert.Contains(t, out.String(), "request excluded")
	assert.Contains(t, out.String(), "request_id=991")
	assert.False(t, json.Valid(bytes.TrimSpace(out.Bytes())))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(envLevel, "debug")
	t.Setenv(envFormat, "text")

	var out bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Format: "json", Level: "error"}, &out)
	require.NoError(t, err)

	log.Debug("visible")
	assert.Contains(t, out.String(), "visible")
	assert.False(t, json.Valid(bytes.TrimSpace(out.Bytes())))
}

func TestRejectsUnknownSettings(t *testing.T) {
	unsetLoggingEnv(t)

	_, err := NewWithWriter(config.LoggingConfig{Format: "xml"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `unsupported log format "xml"`)

	_, err = NewWithWriter(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{})
	assert.ErrorContains(t, err, `unsupported log level "loud"`)
}

func unsetLoggingEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envLevel, "")
	t.Setenv(envFormat, "")
}
