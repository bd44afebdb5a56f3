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
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("warn", false, &buf)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("table", "hw_asset"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "hw_asset", line["table"])
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", true, &buf)
	require.NoError(t, err)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
