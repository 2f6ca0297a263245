package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidLockBackend    = errors.New("invalid create lock backend")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentStoreVersion  = 1
)

// Create lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig
	Store  StoreConfig
}

// CommonConfig contains connection and logging configuration.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	Retry      Retry      `koanf:"retry"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
}

// StoreConfig contains infraction store behavior.
type StoreConfig struct {
	// Version of the store config.
	Version    int        `koanf:"version"`
	CreateLock CreateLock `koanf:"create_lock"`
	Paging     Paging     `koanf:"paging"`
	Bulk       Bulk       `koanf:"bulk"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log files to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
}

// Retry contains retry configuration.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
	// Give up retrying after this many milliseconds.
	MaxElapsed int `koanf:"max_elapsed"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	// Database hostname.
	Host string `koanf:"host"`
	// Database port.
	Port int `koanf:"port"`
	// Database username.
	User string `koanf:"user"`
	// Database password.
	Password string `koanf:"password"`
	// Database name.
	DBName string `koanf:"db_name"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
}

// CreateLock configures the lock held while creating infractions.
type CreateLock struct {
	// Either "local" for a single process or "redis" to share it across processes.
	Backend string `koanf:"backend"`
	// Redis key of the lock.
	Key string `koanf:"key"`
	// Lock expiry in milliseconds.
	TTL int `koanf:"ttl"`
	// Delay between acquisition attempts in milliseconds.
	PollInterval int `koanf:"poll_interval"`
}

// TTLDuration returns the lock expiry.
func (c CreateLock) TTLDuration() time.Duration {
	return time.Duration(c.TTL) * time.Millisecond
}

// PollDuration returns the delay between acquisition attempts.
func (c CreateLock) PollDuration() time.Duration {
	return time.Duration(c.PollInterval) * time.Millisecond
}

// Paging contains page size limits.
type Paging struct {
	// Page size used when none is requested.
	DefaultPageSize int `koanf:"default_page_size"`
	// Largest page size accepted (0 for unlimited).
	MaxPageSize int `koanf:"max_page_size"`
}

// Bulk contains limits for bulk operations.
type Bulk struct {
	// Maximum concurrent writes in bulk rescinds.
	MaxConcurrency int `koanf:"max_concurrency"`
}

// LoadConfig loads the configuration from the first config path holding each file.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	// Get user's home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadConfigFrom([]string{
		".warden",
		homeDir + "/.warden/config",
		"/etc/warden/config",
		"/app/config",
		"config",
		".",
	})
}

// LoadConfigFrom loads the configuration searching only the given paths.
func LoadConfigFrom(configPaths []string) (*Config, string, error) {
	k := koanf.New(".")

	// Load all config files
	var usedConfigPath string

	configFiles := []string{"common", "store"}
	for _, configName := range configFiles {
		configLoaded := false

		for _, path := range configPaths {
			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := k.Load(file.Provider(configPath), toml.Parser()); err == nil {
				configLoaded = true

				if usedConfigPath == "" {
					usedConfigPath = path
				}

				break
			}
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Check versions for each config file
	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("store", config.Store.Version, CurrentStoreVersion); err != nil {
		return nil, "", err
	}

	switch config.Store.CreateLock.Backend {
	case "", LockBackendLocal, LockBackendRedis:
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidLockBackend, config.Store.CreateLock.Backend)
	}

	return &config, usedConfigPath, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/robalyx/warden/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}

// Default returns the configuration used when no config files exist.
func Default() *Config {
	return &Config{
		Common: CommonConfig{
			Version: CurrentCommonVersion,
			Debug: Debug{
				LogLevel:      "info",
				MaxLogsToKeep: 10,
				MaxLogLines:   10000,
			},
			Redis: Redis{
				Host: "localhost",
				Port: 6379,
			},
		},
		Store: StoreConfig{
			Version: CurrentStoreVersion,
			CreateLock: CreateLock{
				Backend:      LockBackendLocal,
				Key:          "warden:lock:infraction_create",
				TTL:          30000,
				PollInterval: 50,
			},
			Paging: Paging{
				DefaultPageSize: 25,
				MaxPageSize:     500,
			},
			Bulk: Bulk{
				MaxConcurrency: 8,
			},
		},
	}
}
