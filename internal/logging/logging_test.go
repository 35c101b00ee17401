package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", want: slog.LevelDebug},
		{name: "info", want: slog.LevelInfo},
		{name: "WARN", want: slog.LevelWarn},
		{name: "error", want: slog.LevelError},
		{name: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "json", "info")
	require.NoError(t, err)

	logger.With(slog.String(ComponentKey, "worker")).Info("delivered", slog.Int("items", 3))
	logger.Debug("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "delivered", line["msg"])
	assert.Equal(t, "worker", line[ComponentKey])
	assert.EqualValues(t, 3, line["items"])
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelInfo))

	logger.With(slog.String(ComponentKey, "dispatcher")).
		Warn("probe failed", slog.String("url", "https://x.com/a/status/1"), slog.String("err", "exit status 1"))

	out := buf.String()
	assert.Contains(t, out, "[dispatcher] (!) probe failed")
	assert.Contains(t, out, "url=https://x.com/a/status/1")
	assert.Contains(t, out, `err="exit status 1"`)
	assert.NotContains(t, out, "component=")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestConsoleHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelInfo))

	logger.Debug("quiet")
	logger.Info("loud")
	logger.Error("boom")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "(I) loud")
	assert.Contains(t, out, "(!!) boom")
}

func TestConsoleHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, slog.LevelDebug))

	logger.WithGroup("job").With(slog.Int("attempt", 2)).Debug("retrying",
		slog.Group("batch", slog.Int("video", 1)),
		slog.String("note", ""),
	)

	out := buf.String()
	assert.Contains(t, out, "(D) retrying")
	assert.Contains(t, out, "job.attempt=2")
	assert.Contains(t, out, "job.batch.video=1")
	assert.Contains(t, out, `job.note=""`)
}
