package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "empty level defaults to info", cfg: &config.LoggingConfig{}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l.GetZerolog())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := parseLogLevel("verbose")
	assert.Error(t, err)
}

func TestFileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crawl.log")
	l, err := New(&config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.WithField("page", 4).Info("Listing page processed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"page":4`))
	assert.True(t, strings.Contains(line, `"app":"hockeyscraper"`))
	assert.True(t, strings.Contains(line, "Listing page processed"))
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "walker").WithError(errors.New("boom"))
	child.WarnWithFields("Row skipped", map[string]interface{}{"row": 2})

	msgs := tl.GetMessagesByLevel("WARN")
	require.Len(t, msgs, 1)
	assert.Equal(t, "walker", msgs[0].Fields["component"])
	assert.Equal(t, 2, msgs[0].Fields["row"])
	assert.EqualError(t, msgs[0].Error, "boom")
	assert.True(t, tl.HasMessage("skipped"))
	assert.False(t, tl.HasError())

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestLogPageProgress(t *testing.T) {
	tl := NewTestLogger()
	LogPageProgress(tl, 7, 100, 98, 2)

	msgs := tl.GetMessagesByLevel("INFO")
	require.Len(t, msgs, 1)
	assert.Equal(t, 7, msgs[0].Fields["page"])
	assert.Equal(t, 2, msgs[0].Fields["failed"])
}

func TestLogRequestLevels(t *testing.T) {
	tl := NewTestLogger()
	LogRequest(tl, "PUT", "https://api.example.com", 201, 12)
	LogRequest(tl, "PUT", "https://api.example.com", 422, 12)
	LogRequest(tl, "PUT", "https://api.example.com", 502, 12)

	assert.Len(t, tl.GetMessagesByLevel("DEBUG"), 1)
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 1)
	assert.Len(t, tl.GetMessagesByLevel("ERROR"), 1)
}
