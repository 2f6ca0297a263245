package telemetry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggersRotatesSessions(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	for _, name := range []string{"2020-01-01_00-00-00", "2020-01-02_00-00-00", "2020-01-03_00-00-00"} {
		require.NoError(t, os.MkdirAll(filepath.Join(logDir, name), os.ModePerm))
	}

	manager := telemetry.NewManager("test", logDir, &config.Debug{
		LogLevel:      "debug",
		MaxLogsToKeep: 2,
		MaxLogLines:   100,
	})

	mainLogger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	mainLogger.Info("hello")
	dbLogger.Debug("query")
	require.NoError(t, mainLogger.Sync())
	require.NoError(t, dbLogger.Sync())

	sessions, err := filepath.Glob(filepath.Join(logDir, "*"))
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, filepath.Join(logDir, "2020-01-03_00-00-00"), sessions[0])
	assert.Equal(t, manager.GetCurrentSessionDir(), sessions[1])

	data, err := os.ReadFile(filepath.Join(manager.GetCurrentSessionDir(), "main.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), manager.GetInstanceID())

	_, err = os.Stat(filepath.Join(manager.GetCurrentSessionDir(), "database.log"))
	assert.NoError(t, err)
}

func TestGetLoggersInvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager("test", t.TempDir(), &config.Debug{
		LogLevel:      "loud",
		MaxLogsToKeep: 1,
	})

	_, _, err := manager.GetLoggers()
	assert.Error(t, err)
}
