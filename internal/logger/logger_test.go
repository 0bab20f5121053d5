package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/storyworld/internal/config"
)

func TestSetup_ProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "production", LogLevel: slog.LevelInfo}, &buf)

	id := uuid.New()
	WithError(WithStory(WithWorldID(l, id), "cake"), errors.New("boom")).Info("event triggered")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "event triggered", line["msg"])
	assert.Equal(t, id.String(), line["world_id"])
	assert.Equal(t, "cake", line["story"])
	assert.Equal(t, "boom", line["error"])
}

func TestSetup_DevelopmentLogsText(t *testing.T) {
	var buf bytes.Buffer
	l := setup(&config.Config{Environment: "development", LogLevel: slog.LevelWarn}, &buf)

	l.Info("hidden")
	l.Warn("shown", "story", "doll")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, "msg=shown"), out)
	assert.Contains(t, out, "story=doll")
}
