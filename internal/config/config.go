// Package config provides centralized configuration management for the ingest
// tool. It loads configuration from environment variables (or any lookup
// function, such as one backed by viper) with sensible defaults and validates
// all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Sink kinds accepted by INGEST_SINK.
const (
	SinkPostgres = "postgres"
	SinkParquet  = "parquet"
	SinkNone     = "none"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Ingest   IngestConfig
	Extract  ExtractConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required by the postgres sink.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Schema receives the ingested tables (default: dima_prod)
	Schema string `env:"DB_SCHEMA" default:"dima_prod"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 0)
	MinConns int `env:"DB_MIN_CONNS" default:"0"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds CSV ingestion settings.
type IngestConfig struct {
	// DataDir is the directory of exported CSV files (default: data)
	DataDir string `env:"DATA_DIR" default:"data"`

	// Sink is where finished tables go: postgres, parquet or none (default: postgres)
	Sink string `env:"INGEST_SINK" default:"postgres"`

	// OutDir receives Parquet files when Sink is parquet (default: out)
	OutDir string `env:"INGEST_OUT_DIR" default:"out"`

	// MaxFileSize is the maximum accepted CSV size in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`

	// Timeout bounds a whole ingest run (default: 30m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"30m"`
}

// ExtractConfig holds exporter container settings.
type ExtractConfig struct {
	// DockerfileDir is the exporter image build context (default: extract)
	DockerfileDir string `env:"EXTRACT_DOCKERFILE_DIR" default:"extract"`

	// ImageTag names the built exporter image (default: dima-export:latest)
	ImageTag string `env:"EXTRACT_IMAGE_TAG" default:"dima-export:latest"`

	// MountTarget is where the data directory appears inside the container
	MountTarget string `env:"EXTRACT_MOUNT_TARGET" default:"/extracted"`

	// Clean empties the data directory before extracting (default: false)
	Clean bool `env:"EXTRACT_CLEAN" default:"false"`

	// Timeout bounds build plus run (default: 30m)
	Timeout time.Duration `env:"EXTRACT_TIMEOUT" default:"30m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, receives a copy of every log line
	File string `env:"LOG_FILE"`
}
