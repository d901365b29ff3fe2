package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOURSE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoAdvance)
	assert.Equal(t, 21600, cfg.AdvanceSeconds)
	assert.Equal(t, 10, cfg.SnapshotKeep)
	assert.InDelta(t, 0.25, cfg.SpilloverDamping, 1e-9)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.False(t, cfg.BackupEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOURSE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("AUTO_ADVANCE", "false")
	t.Setenv("SPILLOVER_DAMPING", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, int64(42), cfg.SimSeed)
	assert.False(t, cfg.AutoAdvance)
	assert.InDelta(t, 0.5, cfg.SpilloverDamping, 1e-9)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Port = 0 }},
		{"negative advance", func(c *Config) { c.AdvanceSeconds = -1 }},
		{"zero snapshot keep", func(c *Config) { c.SnapshotKeep = 0 }},
		{"damping above one", func(c *Config) { c.SpilloverDamping = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:           8001,
				AdvanceSeconds: 60,
				SnapshotKeep:   5,
			}
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestBackupEnabledRequiresAllFields(t *testing.T) {
	cfg := &Config{
		BackupEndpoint:  "https://s3.example.com",
		BackupBucket:    "bourse-backups",
		BackupAccessKey: "key",
	}
	assert.False(t, cfg.BackupEnabled())

	cfg.BackupSecretKey = "secret"
	assert.True(t, cfg.BackupEnabled())
}
