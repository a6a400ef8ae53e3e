package logging_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gestao/internal/config"
	"gestao/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("bogus"))
}

func TestNewLoggerTestEnvironmentSkipsFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{Environment: config.Test, LogLevel: config.LogLevelInfo, LogsDirectory: dir}

	var out bytes.Buffer
	logger, closer := logging.NewLogger(cfg, &out)
	defer closer.Close()

	logger.Info("Range selected", slog.String("range", "2024-03-01..2024-03-10"))
	logger.Debug("hidden")

	assert.Contains(t, out.String(), "Range selected")
	assert.NotContains(t, out.String(), "hidden")
	assert.NoFileExists(t, filepath.Join(dir, logging.LogFileName))
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Environment:      config.Production,
		LogLevel:         config.LogLevelWarn,
		LogsDirectory:    dir,
		LogsMaxSizeInMb:  1,
		LogsMaxBackups:   1,
		LogsMaxAgeInDays: 1,
	}

	var out bytes.Buffer
	logger, closer := logging.NewLogger(cfg, &out)
	logger.With(slog.String("component", "gateway")).Warn("Comparison fetch failed", slog.Int("status", 502))
	logger.Info("filtered")
	require.NoError(t, closer.Close())

	assert.Contains(t, out.String(), "Comparison fetch failed")

	f, err := os.Open(filepath.Join(dir, logging.LogFileName))
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []map[string]any
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 1)
	assert.Equal(t, "Comparison fetch failed", lines[0]["msg"])
	assert.Equal(t, "gateway", lines[0]["component"])
	assert.EqualValues(t, 502, lines[0]["status"])
}
