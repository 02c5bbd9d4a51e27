package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
)

// Storage backends understood by db.GetStorage.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config holds the service settings. Flags provide defaults, environment variables win.
type Config struct {
	ServerAddress     string `env:"SERVER_ADDRESS"`
	BaseURL           string `env:"BASE_URL"`
	FileStoragePath   string `env:"FILE_STORAGE_PATH"`
	SQLitePath        string `env:"SQLITE_PATH"`
	DatabaseDSN       string `env:"DATABASE_DSN"`
	DatabaseDriver    string `env:"DATABASE_DRIVER"`
	StorageType       string `env:"STORAGE_TYPE"`
	MaxInsertAttempts int    `env:"MAX_INSERT_ATTEMPTS"`
	MaxCodeDraws      int    `env:"MAX_CODE_DRAWS"`
	LogLevel          string `env:"LOG_LEVEL"`
	LogFile           string `env:"LOG_FILE"`
}

// Load builds a Config from command line args and the environment.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddress, "a", "localhost:8080", "server listen address")
	fs.StringVar(&cfg.BaseURL, "b", "", "base URL for access links, derived from the request when empty")
	fs.StringVar(&cfg.FileStoragePath, "f", "urls.jsonl", "file storage path")
	fs.StringVar(&cfg.SQLitePath, "sqlite", "data.db", "sqlite database path")
	fs.StringVar(&cfg.DatabaseDSN, "d", "", "postgres DSN")
	fs.StringVar(&cfg.DatabaseDriver, "driver", "pgx", "postgres sql driver: pgx or postgres")
	fs.StringVar(&cfg.StorageType, "s", StorageSQLite, "storage type: memory, file, sqlite or postgres")
	fs.IntVar(&cfg.MaxInsertAttempts, "attempts", 5, "insert attempts before a code conflict is reported")
	fs.IntVar(&cfg.MaxCodeDraws, "draws", 1000, "random draws per code generation before giving up")
	fs.StringVar(&cfg.LogLevel, "l", "info", "log level")
	fs.StringVar(&cfg.LogFile, "log-file", "", "rotate logs into this file in addition to stdout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}

	// a DSN on its own is enough to mean postgres
	_, typeFromEnv := os.LookupEnv("STORAGE_TYPE")
	if cfg.DatabaseDSN != "" && !isSet(fs, "s") && !typeFromEnv {
		cfg.StorageType = StoragePostgres
	}

	if cfg.MaxInsertAttempts < 1 {
		return nil, fmt.Errorf("attempts must be positive, got %d", cfg.MaxInsertAttempts)
	}
	if cfg.MaxCodeDraws < 1 {
		return nil, fmt.Errorf("draws must be positive, got %d", cfg.MaxCodeDraws)
	}

	return cfg, nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
