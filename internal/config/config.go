// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for databases and snapshots (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Simulation engine.
	SimSeed      int64  // 0 means seed from wall clock
	UniversePath string // empty means the embedded default universe
	Resume       bool   // restore the latest snapshot on startup

	SpilloverDamping float64

	// Scheduler.
	AutoAdvance    bool
	AdvanceCron    string
	AdvanceSeconds int // simulated seconds per advance tick
	SnapshotCron   string
	SnapshotKeep   int
	BackupCron     string

	// Offsite backup (disabled unless endpoint, bucket and keys are set).
	BackupEndpoint      string
	BackupBucket        string
	BackupAccessKey     string
	BackupSecretKey     string
	BackupRetentionDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BOURSE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),

		SimSeed:      int64(getEnvAsInt("SIM_SEED", 0)),
		UniversePath: getEnv("UNIVERSE_PATH", ""),
		Resume:       getEnvAsBool("RESUME", true),

		SpilloverDamping: getEnvAsFloat("SPILLOVER_DAMPING", 0.25),

		AutoAdvance:    getEnvAsBool("AUTO_ADVANCE", true),
		AdvanceCron:    getEnv("ADVANCE_CRON", "*/30 * * * * *"),
		AdvanceSeconds: getEnvAsInt("ADVANCE_SECONDS", 21600),
		SnapshotCron:   getEnv("SNAPSHOT_CRON", "0 */10 * * * *"),
		SnapshotKeep:   getEnvAsInt("SNAPSHOT_KEEP", 10),
		BackupCron:     getEnv("BACKUP_CRON", "0 0 3 * * *"),

		BackupEndpoint:      getEnv("BACKUP_S3_ENDPOINT", ""),
		BackupBucket:        getEnv("BACKUP_S3_BUCKET", ""),
		BackupAccessKey:     getEnv("BACKUP_S3_ACCESS_KEY", ""),
		BackupSecretKey:     getEnv("BACKUP_S3_SECRET_KEY", ""),
		BackupRetentionDays: getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackupEnabled reports whether offsite backup is fully configured.
func (c *Config) BackupEnabled() bool {
	return c.BackupEndpoint != "" && c.BackupBucket != "" &&
		c.BackupAccessKey != "" && c.BackupSecretKey != ""
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AdvanceSeconds <= 0 {
		return fmt.Errorf("ADVANCE_SECONDS must be positive, got %d", c.AdvanceSeconds)
	}
	if c.SnapshotKeep < 1 {
		return fmt.Errorf("SNAPSHOT_KEEP must be at least 1, got %d", c.SnapshotKeep)
	}
	if c.SpilloverDamping < 0 || c.SpilloverDamping > 1 {
		return fmt.Errorf("SPILLOVER_DAMPING must be in [0,1], got %f", c.SpilloverDamping)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
