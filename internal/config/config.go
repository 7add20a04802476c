package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration for the Medley server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	// Root is the durable uploads root; each user gets a directory under it.
	Root string
	// TempDir is the scratch directory uploads are staged in before the
	// atomic move into Root. It must live on the same filesystem as Root.
	TempDir        string
	MaxUploadBytes int64
}

type WorkerConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	ProbeTimeout time.Duration
	// StaleTimeout is how long a job may sit in processing before the
	// worker reclaims it as pending (crash recovery).
	StaleTimeout time.Duration
	FFprobePath  string
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MEDLEY_PORT", 8080),
			Env:  envString("MEDLEY_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Storage: StorageConfig{
			Root:           envString("STORAGE_ROOT", "uploads"),
			TempDir:        os.Getenv("STORAGE_TEMP_DIR"),
			MaxUploadBytes: envInt64("STORAGE_MAX_UPLOAD_BYTES", 100<<20),
		},
		Worker: WorkerConfig{
			PollInterval: envDuration("WORKER_POLL_INTERVAL", time.Second),
			MaxRetries:   envInt("WORKER_MAX_RETRIES", 3),
			ProbeTimeout: envDuration("WORKER_PROBE_TIMEOUT", 30*time.Second),
			StaleTimeout: envDuration("WORKER_STALE_TIMEOUT", 0),
			FFprobePath:  envString("FFPROBE_PATH", "ffprobe"),
		},
	}

	if cfg.Storage.TempDir == "" {
		// Default scratch dir under the uploads root so os.Rename never
		// crosses a filesystem boundary.
		cfg.Storage.TempDir = filepath.Join(cfg.Storage.Root, ".tmp")
	}
	if cfg.Worker.StaleTimeout == 0 {
		cfg.Worker.StaleTimeout = 10 * cfg.Worker.PollInterval
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("STORAGE_MAX_UPLOAD_BYTES must be positive, got %d", c.Storage.MaxUploadBytes)
	}

	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("WORKER_POLL_INTERVAL must be positive, got %s", c.Worker.PollInterval)
	}
	if c.Worker.MaxRetries < 1 {
		return fmt.Errorf("WORKER_MAX_RETRIES must be at least 1, got %d", c.Worker.MaxRetries)
	}
	if c.Worker.StaleTimeout < c.Worker.PollInterval {
		return fmt.Errorf("WORKER_STALE_TIMEOUT must be at least the poll interval, got %s", c.Worker.StaleTimeout)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
