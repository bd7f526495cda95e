package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Writer: &buf})
	require.NoError(t, err)

	log.Info().Msg("hidden")
	engineLog := Component(log, "engine")
	engineLog.Warn().Int("frames", 90).Msg("fallback")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "lipsync2video", entry["app"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, float64(90), entry["frames"])
	assert.Equal(t, "fallback", entry["message"])
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Console: true, Writer: &buf})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Msg("audio loaded")
	assert.Contains(t, buf.String(), "audio loaded")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}
