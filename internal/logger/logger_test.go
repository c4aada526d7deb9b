package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "WARN", Format: "text"}, WithOutput(&buf))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_WithLevelOverridesOptions(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "ERROR"}, WithOutput(&buf), WithLevel("DEBUG"))

	log.DebugContext(context.Background(), "task t1")

	assert.Contains(t, buf.String(), "task t1")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "INFO", Format: "json", TimeFormat: "Unix"}, WithOutput(&buf))

	log.Info("hello", "owner", "alice")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "alice", rec["owner"])
	_, isNumber := rec["time"].(float64)
	assert.True(t, isNumber, "Unix time format should render a number")
}

func TestDiscard(t *testing.T) {
	Discard().Error("nowhere")
}
