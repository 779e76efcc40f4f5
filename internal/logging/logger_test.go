package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/searchnav/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.ApplyDefaults()
	cfg.Dir = filepath.Join(t.TempDir(), "logs")

	var buf bytes.Buffer
	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown", "component", "test")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	_, err = os.Stat(cfg.Dir)
	assert.True(t, os.IsNotExist(err), "no directory without file output")
}

func TestNewLogger_NothingEnabled(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Console.Enabled = false

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	logger.Error("goes nowhere")
}

func TestNewLogger_Files(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = dir
	cfg.Console.Enabled = false
	cfg.File.Enabled = true
	cfg.Rotation.Compress = false
	cfg.ApplyDefaults()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Shutdown() })

	logger.Info("routine")
	logger.Warn("trouble")

	main, err := os.ReadFile(filepath.Join(dir, mainLogFile))
	require.NoError(t, err)
	assert.Contains(t, string(main), "routine")
	assert.Contains(t, string(main), "trouble")

	errs, err := os.ReadFile(filepath.Join(dir, errorLogFile))
	require.NoError(t, err)
	assert.NotContains(t, string(errs), "routine")
	assert.Contains(t, string(errs), "trouble")

	require.NoError(t, Shutdown())
}

func TestNewLogger_JSONConsole(t *testing.T) {
	cfg := config.DefaultLoggingConfig()
	cfg.Format = "json"
	cfg.ApplyDefaults()

	var buf bytes.Buffer
	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)
	logger.Info("structured")

	assert.Contains(t, buf.String(), `"msg":"structured"`)
}
