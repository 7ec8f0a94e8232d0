package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the resize service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"image-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"IMAGE_API_PORT" envDefault:"8080"`
	LogLevel        string        `env:"IMAGE_LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Metadata index backend. "sqlite" keeps everything on the local disk
	// next to the blob root; "postgres" uses the DSN below.
	DBDriver    string `env:"IMAGE_DB_DRIVER" envDefault:"sqlite"`
	SQLitePath  string `env:"IMAGE_SQLITE_PATH" envDefault:"./database/resize.api.db"`
	PostgresDSN string `env:"IMAGE_POSTGRES_DSN"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Blob Storage Backend Selection
	StorageBackend string `env:"IMAGE_STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// Local Storage Configuration
	BlobRoot string `env:"IMAGE_BLOB_ROOT" envDefault:"./database/cache"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"IMAGE_S3_ENDPOINT"`
	S3Region       string `env:"IMAGE_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"IMAGE_S3_BUCKET"`
	S3AccessKeyID  string `env:"IMAGE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"IMAGE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"IMAGE_S3_USE_PATH_STYLE" envDefault:"true"`

	// Upload limits
	MaxImageBytes int64 `env:"IMAGE_MAX_BYTES" envDefault:"10485760"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = 10 * 1024 * 1024
	}
	if cfg.IsPostgres() && strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, fmt.Errorf("IMAGE_POSTGRES_DSN is required when IMAGE_DB_DRIVER is postgres")
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsPostgres returns true if the postgres index backend is configured.
func (c *Config) IsPostgres() bool {
	return strings.ToLower(strings.TrimSpace(c.DBDriver)) == "postgres"
}

// IsLocalStorage returns true if local blob storage is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}
