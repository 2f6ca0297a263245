package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robalyx/warden/internal/database"
	"github.com/robalyx/warden/internal/database/dbretry"
	"github.com/robalyx/warden/internal/database/memstore"
	"github.com/robalyx/warden/internal/database/migrations"
	"github.com/robalyx/warden/internal/database/service"
	"github.com/robalyx/warden/internal/lock"
	"github.com/robalyx/warden/internal/redis"
	"github.com/robalyx/warden/internal/setup/config"
	"github.com/robalyx/warden/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

var ErrMigrationsPending = errors.New("database migrations are pending")

// Options selects how the application is wired.
type Options struct {
	// Component names this process in logs.
	Component string
	// LogDir is the base directory for log sessions.
	LogDir string
	// Memory keeps all data in process memory instead of PostgreSQL.
	Memory bool
	// AutoMigrate applies pending migrations without asking.
	AutoMigrate bool
	// SkipMigrationCheck connects without looking at migration status.
	SkipMigrationCheck bool
}

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config             // Application configuration
	Logger       *zap.Logger                // Main application logger
	DBLogger     *zap.Logger                // Database-specific logger
	DB           database.Client            // Database connection pool, nil in memory mode
	RedisManager *redis.Manager             // Redis connection manager
	Locker       lock.Locker                // Lock held while creating infractions
	Infractions  *service.InfractionService // Infraction lifecycle operations
	Bans         *service.BanService        // Guild ban tracking
	LogManager   *telemetry.Manager         // Log management system
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, opts Options) (*App, error) {
	cfg, err := loadConfig(opts.Memory)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(opts.Component, opts.LogDir, &cfg.Common.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	dbretry.SetPolicy(retryPolicy(&cfg.Common.Retry))

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	locker, err := newLocker(&cfg.Store.CreateLock, redisManager, logger)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	app := &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		RedisManager: redisManager,
		Locker:       locker,
		LogManager:   logManager,
	}

	var (
		infractionStore service.InfractionStore
		banStore        service.BanStore
	)

	if opts.Memory {
		infractionStore = memstore.NewInfractionStore(dbLogger)
		banStore = memstore.NewBanStore()
		logger.Info("Using in-memory store")
	} else {
		db, err := connect(ctx, &cfg.Common.PostgreSQL, dbLogger, opts)
		if err != nil {
			redisManager.Close()
			return nil, err
		}

		app.DB = db
		infractionStore = db.Model().Infraction()
		banStore = db.Model().Ban()
	}

	app.Infractions = service.NewInfraction(infractionStore, locker, service.InfractionOptions{
		MaxPageSize:    cfg.Store.Paging.MaxPageSize,
		MaxConcurrency: cfg.Store.Bulk.MaxConcurrency,
	}, logger)
	app.Bans = service.NewBan(banStore, logger)

	return app, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup() {
	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("Failed to close database connection: %v", err)
		}
	}

	// Close Redis connections last as a held lock may still need releasing
	s.RedisManager.Close()
}

// loadConfig reads the config files. Memory mode falls back to defaults when
// no config files exist.
func loadConfig(memory bool) (*config.Config, error) {
	cfg, _, err := config.LoadConfig()
	if err == nil {
		return cfg, nil
	}
	if memory && errors.Is(err, config.ErrConfigFileNotFound) {
		return config.Default(), nil
	}
	return nil, err
}

// newLocker builds the creation lock for the configured backend.
func newLocker(cfg *config.CreateLock, redisManager *redis.Manager, logger *zap.Logger) (lock.Locker, error) {
	if cfg.Backend != config.LockBackendRedis {
		return lock.NewLocal(), nil
	}

	client, err := redisManager.GetClient(redis.LockDBIndex)
	if err != nil {
		return nil, err
	}

	logger.Info("Using Redis creation lock",
		zap.String("key", cfg.Key),
		zap.Duration("ttl", cfg.TTLDuration()))

	return lock.NewRedis(client, cfg.Key, cfg.TTLDuration(), cfg.PollDuration(), logger), nil
}

func retryPolicy(cfg *config.Retry) dbretry.Policy {
	policy := dbretry.DefaultPolicy
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.Delay > 0 {
		policy.InitialInterval = time.Duration(cfg.Delay) * time.Millisecond
	}
	if cfg.MaxDelay > 0 {
		policy.MaxInterval = time.Duration(cfg.MaxDelay) * time.Millisecond
	}
	if cfg.MaxElapsed > 0 {
		policy.MaxElapsedTime = time.Duration(cfg.MaxElapsed) * time.Millisecond
	}
	return policy
}

// connect opens the database, checking for pending migrations first.
func connect(
	ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger, opts Options,
) (database.Client, error) {
	if opts.SkipMigrationCheck || opts.AutoMigrate {
		return database.NewConnection(ctx, cfg, dbLogger, opts.AutoMigrate)
	}

	tempDB, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(tempDB.DB(), migrations.Migrations)

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		tempDB.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	if len(ms.Unapplied()) == 0 {
		return tempDB, nil
	}

	log.Println("Database migrations are pending. Would you like to run them now? (y/N)")

	var response string

	_, _ = fmt.Scanln(&response)

	tempDB.Close()

	if response != "y" && response != "Y" {
		return nil, ErrMigrationsPending
	}

	return database.NewConnection(ctx, cfg, dbLogger, true)
}
