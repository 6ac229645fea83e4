package logger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantcrm/crm-authz/internal/logger"
)

func TestInitValidation(t *testing.T) {
	require.Error(t, logger.Init(logger.Log{LogLevel: "loud", AppName: "a", ServiceName: "s"}))
	require.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", AppName: "a"}), logger.ErrServiceNameIsEmpty)
	require.ErrorIs(t, logger.Init(logger.Log{LogLevel: "info", ServiceName: "s"}), logger.ErrAppNameIsEmpty)
}

func TestConsoleOutput(t *testing.T) {
	testCases := []struct {
		name             string
		cfg              logger.Log
		shouldHaveOutput bool
		outputIsJSON     bool
	}{
		{
			name:             "no output enabled",
			cfg:              logger.Log{ServiceName: "test", AppName: "test"},
			shouldHaveOutput: false,
		},
		{
			name: "console json",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				LogEnv:      "ci",
				Console:     logger.Console{Enabled: true},
			},
			shouldHaveOutput: true,
			outputIsJSON:     true,
		},
		{
			name: "console writer",
			cfg: logger.Log{
				LogLevel:    "info",
				ServiceName: "test",
				AppName:     "test",
				Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
			},
			shouldHaveOutput: true,
		},
		{
			name: "trace with caller",
			cfg: logger.Log{
				LogLevel:     "trace",
				ServiceName:  "test",
				AppName:      "test",
				ReportCaller: true,
				Console:      logger.Console{Enabled: true},
			},
			shouldHaveOutput: true,
			outputIsJSON:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := captureOutput(t, tc.cfg)

			if !tc.shouldHaveOutput {
				assert.Empty(t, out)
				return
			}

			require.NotEmpty(t, out)

			if !tc.outputIsJSON {
				return
			}

			for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
				assert.Equal(t, "test", entry["app"])
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	cfg := logger.Log{
		LogLevel:    "debug",
		ServiceName: "test",
		AppName:     "test",
		File: logger.LogFile{
			Enabled: true,
			Path:    dir,
			Error:   logger.RollingFile{Name: "error.log", MaxSize: 1},
			Info:    logger.RollingFile{Name: "info.log", MaxSize: 1},
			Trace:   logger.RollingFile{Name: "trace.log", MaxSize: 1},
			Warn:    logger.RollingFile{Name: "warn.log", MaxSize: 1},
		},
	}

	require.NoError(t, logger.Init(cfg))

	log.Info().Msg("info line")
	log.Warn().Msg("warn line")
	log.Error().Msg("error line")

	for file, expected := range map[string]string{
		"info.log":  "info line",
		"warn.log":  "warn line",
		"error.log": "error line",
	} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		require.NoError(t, err, file)
		assert.Contains(t, string(data), expected)
		assert.Equal(t, 1, strings.Count(string(data), "\n"), file)
	}
}

func TestLevelWriterSkipsMissingWriter(t *testing.T) {
	var info bytes.Buffer

	lw := &logger.LevelWriter{InfoWriter: &info}

	n, err := lw.WriteLevel(zerolog.ErrorLevel, []byte("dropped"))
	require.NoError(t, err)
	assert.Equal(t, len("dropped"), n)

	_, err = lw.WriteLevel(zerolog.DebugLevel, []byte("kept"))
	require.NoError(t, err)
	assert.Equal(t, "kept", info.String())

	n, err = lw.WriteLevel(zerolog.Disabled, []byte("off"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func captureOutput(t *testing.T, cfg logger.Log) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	initErr := logger.Init(cfg)

	log.Info().Msg("this info message should be seen...")
	log.Error().Msg("this err message should be seen...")
	log.Trace().Msg("this trace message should be seen...")

	os.Stdout, os.Stderr = stdout, stderr
	_ = w.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	require.NoError(t, initErr)

	return buf.String()
}
