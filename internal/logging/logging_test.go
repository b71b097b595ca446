package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, false)

	log.Debug("hidden")
	log.Info("assign rejected", zap.String("code", "POSITION_TAKEN"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug entries are dropped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "assign rejected", entry["msg"])
	assert.Equal(t, "POSITION_TAKEN", entry["code"])
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, true)

	log.Debug("create division", zap.String("division_id", "div_u10"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "DEBUG")
	assert.Contains(t, out, "create division")
	assert.Contains(t, out, `"division_id": "div_u10"`)
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))), "verbose output is console encoded")
}
