package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONFormatWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("vote cast", "event", "vote_cast", "module", "civic-voting/election-engine")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "vote cast", record["msg"])
	assert.Equal(t, "vote_cast", record["event"])
	assert.Equal(t, "civic-voting/election-engine", record["module"])
}

func TestTextFormatIsDefault(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "", "logfmt").Info("ready", "layer", "platform")

	assert.Contains(t, buf.String(), "msg=ready")
	assert.Contains(t, buf.String(), "layer=platform")
}
