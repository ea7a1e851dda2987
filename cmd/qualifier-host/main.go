package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openutm/qualifier-host/config"
	"github.com/openutm/qualifier-host/internal/bootstrap"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	// Log startup info
	logStartupInfo(ctx, logger, &cfg)

	cfgPtr := &cfg

	// Validate configuration
	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	// Initialize infrastructure
	archiveDB, redisClient, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", cerr)
		}
	}()
	if archiveDB != nil {
		defer func() {
			if cerr := archiveDB.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close archive database failed", "error", cerr)
			}
		}()
	}

	// Run migrations if the archive is enabled
	if archiveDB != nil && cfg.Archive.RunMigrationsOnStart {
		if err = bootstrap.RunMigrations(ctx, archiveDB, logger); err != nil {
			return err
		}
	}

	// Initialize and run services
	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      cfgPtr,
		ArchiveDB:   archiveDB,
		RedisClient: redisClient,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:      cfgPtr,
		Services:    services,
		RedisClient: redisClient,
		Logger:      logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	enabledServices := bootstrap.GetEnabledServices(cfg)
	logger.InfoContext(ctx, "starting qualifier host",
		"redis_uri", cfg.Redis.URI,
		"archive_enabled", cfg.Archive.Enabled,
		"enabled_services", enabledServices)
}

// initInfrastructure connects shared dependencies used by the service runtime.
// The archive database is optional and returns nil when disabled.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel support flexible.
func initInfrastructure(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*sql.DB, redis.UniversalClient, error) {
	var archiveDB *sql.DB
	if cfg.Archive.Enabled {
		db, err := bootstrap.ConnectArchiveDB(bootstrap.DatabaseConfig{
			ArchiveConfig: cfg.Archive,
			Logger:        logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect archive db: %w", err)
		}
		archiveDB = db
	}

	redisClient, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{
		RedisConfig: cfg.Redis,
		Logger:      logger,
	})
	if err != nil {
		if archiveDB != nil {
			if cerr := archiveDB.Close(); cerr != nil {
				logger.ErrorContext(ctx, "close archive database after redis connect failure", "error", cerr)
				return nil, nil, fmt.Errorf("connect redis: %w", errors.Join(err, fmt.Errorf("close archive database: %w", cerr)))
			}
		}
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}

	return archiveDB, redisClient, nil
}
