package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// Database
	StoreDriver         string // "postgres" or "memory"
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration

	// Clerk Auth
	ClerkPublishableKey string
	ClerkSecretKey      string
	SessionCheckTimeout time.Duration
	WebhookSecret       string

	// S3
	S3Bucket        string
	S3Region        string
	AWSEndpoint     string // For LocalStack in development
	S3PublicBaseURL string

	// Attachments
	MaxAttachmentBytes int64
	StagingDir         string
	PreviewMaxWidth    int

	// Presigned download lifetime for private buckets; 0 streams downloads
	AttachmentURLTTL time.Duration

	// PIN lock
	UnlockTokenSecret string
	UnlockTokenTTL    time.Duration
	PinMaxAttempts    int
	PinLockout        time.Duration

	// Domain
	Timezone       string
	DashboardCache bool
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnvInt("PORT", 8080),
		Environment:         getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		AllowedOrigins:      getEnvList("FRONTEND_ORIGINS", []string{"http://localhost:5173"}),
		StoreDriver:         getEnv("STORE_DRIVER", "postgres"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DBMaxConnections:    getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout: getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		ClerkPublishableKey: getEnv("CLERK_PUBLISHABLE_KEY", ""),
		ClerkSecretKey:      getEnv("CLERK_SECRET_KEY", ""),
		SessionCheckTimeout: getEnvDuration("SESSION_CHECK_TIMEOUT", 10*time.Second),
		WebhookSecret:       getEnv("WEBHOOK_SECRET", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "ap-southeast-3"),
		AWSEndpoint:         getEnv("AWS_ENDPOINT", ""),
		S3PublicBaseURL:     getEnv("S3_PUBLIC_BASE_URL", ""),
		MaxAttachmentBytes:  int64(getEnvInt("MAX_ATTACHMENT_BYTES", 5*1024*1024)),
		StagingDir:          getEnv("STAGING_DIR", os.TempDir()),
		PreviewMaxWidth:     getEnvInt("PREVIEW_MAX_WIDTH", 320),
		AttachmentURLTTL:    getEnvDuration("ATTACHMENT_URL_TTL", 15*time.Minute),
		UnlockTokenSecret:   getEnv("UNLOCK_TOKEN_SECRET", ""),
		UnlockTokenTTL:      getEnvDuration("UNLOCK_TOKEN_TTL", 12*time.Hour),
		PinMaxAttempts:      getEnvInt("PIN_MAX_ATTEMPTS", 5),
		PinLockout:          getEnvDuration("PIN_LOCKOUT", 30*time.Second),
		Timezone:            getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		DashboardCache:      getEnvBool("DASHBOARD_CACHE", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case "memory":
		if c.Environment == "production" {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.ClerkSecretKey == "" && c.Environment == "production" {
		return fmt.Errorf("CLERK_SECRET_KEY is required in production")
	}
	if c.WebhookSecret == "" && c.Environment == "production" {
		return fmt.Errorf("WEBHOOK_SECRET is required in production")
	}
	if c.S3Bucket == "" && c.Environment == "production" {
		return fmt.Errorf("S3_BUCKET is required in production")
	}
	if c.UnlockTokenSecret == "" {
		if c.Environment == "production" {
			return fmt.Errorf("UNLOCK_TOKEN_SECRET is required in production")
		}
		c.UnlockTokenSecret = "development-unlock-secret"
	}
	if c.PinMaxAttempts < 1 {
		return fmt.Errorf("PIN_MAX_ATTEMPTS must be at least 1")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the configured timezone used for dates and month windows.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
