package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robalyx/warden/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commonTOML = `
version = 1

[debug]
log_level = "debug"
max_logs_to_keep = 3
max_log_lines = 500

[postgresql]
host = "db"
port = 5432
db_name = "warden"
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o600))
}

func TestLoadConfigFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "common", commonTOML)
	writeConfig(t, dir, "store", `
version = 1

[create_lock]
backend = "redis"
key = "lock"
ttl = 2000
poll_interval = 25

[paging]
default_page_size = 10
max_page_size = 100

[bulk]
max_concurrency = 4
`)

	cfg, used, err := config.LoadConfigFrom([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)

	assert.Equal(t, dir, used)
	assert.Equal(t, "debug", cfg.Common.Debug.LogLevel)
	assert.Equal(t, "db", cfg.Common.PostgreSQL.Host)
	assert.Equal(t, config.LockBackendRedis, cfg.Store.CreateLock.Backend)
	assert.Equal(t, 2*time.Second, cfg.Store.CreateLock.TTLDuration())
	assert.Equal(t, 25*time.Millisecond, cfg.Store.CreateLock.PollDuration())
	assert.Equal(t, 100, cfg.Store.Paging.MaxPageSize)
	assert.Equal(t, 4, cfg.Store.Bulk.MaxConcurrency)
}

func TestLoadConfigFromErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		store   string
		wantErr error
	}{
		{
			name:    "missing store file",
			wantErr: config.ErrConfigFileNotFound,
		},
		{
			name:    "missing version",
			store:   "[paging]\ndefault_page_size = 10\n",
			wantErr: config.ErrConfigVersionMissing,
		},
		{
			name:    "version mismatch",
			store:   "version = 99\n",
			wantErr: config.ErrConfigVersionMismatch,
		},
		{
			name:    "unknown lock backend",
			store:   "version = 1\n[create_lock]\nbackend = \"zookeeper\"\n",
			wantErr: config.ErrInvalidLockBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, "common", commonTOML)
			if tt.store != "" {
				writeConfig(t, dir, "store", tt.store)
			}

			_, _, err := config.LoadConfigFrom([]string{dir})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.Equal(t, config.CurrentCommonVersion, cfg.Common.Version)
	assert.Equal(t, config.CurrentStoreVersion, cfg.Store.Version)
	assert.Equal(t, config.LockBackendLocal, cfg.Store.CreateLock.Backend)
	assert.Positive(t, cfg.Store.Paging.DefaultPageSize)
}
