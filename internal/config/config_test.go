package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(5*1024*1024), cfg.MaxAttachmentBytes)
	assert.Equal(t, 5, cfg.PinMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.PinLockout)
	assert.Equal(t, "development-unlock-secret", cfg.UnlockTokenSecret)
	assert.Equal(t, "Asia/Jakarta", cfg.Timezone)
	assert.True(t, cfg.DashboardCache)
	assert.Equal(t, 15*time.Minute, cfg.AttachmentURLTTL)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/mydaily")
	t.Setenv("PORT", "9090")
	t.Setenv("FRONTEND_ORIGINS", " https://mydaily.app , ,http://localhost:3000")
	t.Setenv("PIN_LOCKOUT", "1m")
	t.Setenv("PIN_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("DASHBOARD_CACHE", "false")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("ATTACHMENT_URL_TTL", "0s")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://mydaily.app", "http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Minute, cfg.PinLockout)
	assert.Equal(t, 5, cfg.PinMaxAttempts, "unparsable values fall back to the default")
	assert.False(t, cfg.DashboardCache)
	assert.Zero(t, cfg.AttachmentURLTTL)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestValidate(t *testing.T) {
	production := func() *Config {
		return &Config{
			Environment:       "production",
			StoreDriver:       "postgres",
			DatabaseURL:       "postgres://db/mydaily",
			ClerkSecretKey:    "sk_live",
			WebhookSecret:     "hook",
			S3Bucket:          "mydaily-attachments",
			UnlockTokenSecret: "unlock",
			PinMaxAttempts:    5,
			Timezone:          "Asia/Jakarta",
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "complete production config", mutate: func(*Config) {}},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, wantErr: "DATABASE_URL is required"},
		{name: "memory store in production", mutate: func(c *Config) { c.StoreDriver = "memory" }, wantErr: "not allowed in production"},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }, wantErr: "unsupported STORE_DRIVER"},
		{name: "missing clerk key", mutate: func(c *Config) { c.ClerkSecretKey = "" }, wantErr: "CLERK_SECRET_KEY"},
		{name: "missing webhook secret", mutate: func(c *Config) { c.WebhookSecret = "" }, wantErr: "WEBHOOK_SECRET"},
		{name: "missing bucket", mutate: func(c *Config) { c.S3Bucket = "" }, wantErr: "S3_BUCKET"},
		{name: "missing unlock secret", mutate: func(c *Config) { c.UnlockTokenSecret = "" }, wantErr: "UNLOCK_TOKEN_SECRET"},
		{name: "no attempts", mutate: func(c *Config) { c.PinMaxAttempts = 0 }, wantErr: "PIN_MAX_ATTEMPTS"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "invalid APP_TIMEZONE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := production()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
