package db

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jayjaytrn/URLMapper/config"
	"github.com/jayjaytrn/URLMapper/internal/db/filestorage"
	"github.com/jayjaytrn/URLMapper/internal/db/memorystorage"
	"github.com/jayjaytrn/URLMapper/internal/db/postgres"
	"github.com/jayjaytrn/URLMapper/internal/db/sqlite"
)

// GetStorage initializes and returns a storage manager based on the configured storage type.
func GetStorage(cfg *config.Config, logger *zap.SugaredLogger) (ShortenerStorage, error) {
	switch cfg.StorageType {
	case config.StorageMemory:
		logger.Debug("using memory storage")
		return memorystorage.NewManager(), nil

	case config.StorageFile:
		logger.Debugw("using file storage", "path", cfg.FileStoragePath)
		s, err := filestorage.NewManager(cfg.FileStoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		return s, nil

	case config.StorageSQLite:
		logger.Debugw("using sqlite storage", "path", cfg.SQLitePath)
		s, err := sqlite.NewManager(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		return s, nil

	case config.StoragePostgres:
		logger.Debugw("using postgres storage", "driver", cfg.DatabaseDriver)
		s, err := postgres.NewManager(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		return s, nil
	}

	return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
}
