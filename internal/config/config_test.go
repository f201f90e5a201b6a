package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	key := strings.Repeat("k", 32)
	return &Config{
		SessionSecret:       key,
		DBEncryptionKey:     key,
		AppEncryptionKey:    key,
		BackupEncryptionKey: key,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateMissingKeys(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing session secret", func(c *Config) { c.SessionSecret = "" }},
		{"short session secret", func(c *Config) { c.SessionSecret = "short" }},
		{"missing db key", func(c *Config) { c.DBEncryptionKey = "" }},
		{"short db key", func(c *Config) { c.DBEncryptionKey = "short" }},
		{"missing app key", func(c *Config) { c.AppEncryptionKey = "" }},
		{"missing backup key", func(c *Config) { c.BackupEncryptionKey = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	key := strings.Repeat("k", 32)
	t.Setenv("PORT", "")
	t.Setenv("SESSION_SECRET", key)
	t.Setenv("DB_ENCRYPTION_KEY", key)
	t.Setenv("APP_ENCRYPTION_KEY", key)
	t.Setenv("BACKUP_ENCRYPTION_KEY", key)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5555", cfg.Port)
	assert.Equal(t, "rb_session", cfg.SessionCookie)
	assert.Equal(t, 10, cfg.RateLimitRPS)
	assert.Equal(t, 30, cfg.BackupRetentionDays)
}
