package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Lookup returns the raw value for an environment variable name, or "" when
// unset.
type Lookup func(name string) string

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	return LoadWith(os.Getenv)
}

// LoadWith reads configuration through lookup. The CLI passes a viper-backed
// lookup so command-line flags override the environment.
func LoadWith(lookup Lookup) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from lookup.
func loadStruct(v reflect.Value, lookup Lookup) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, lookup); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary name, then alternate
		value := strings.TrimSpace(lookup(envName))
		if value == "" && envAlt != "" {
			value = strings.TrimSpace(lookup(envAlt))
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Sink validation
	switch strings.ToLower(c.Ingest.Sink) {
	case SinkPostgres, SinkParquet, SinkNone:
	default:
		errs = append(errs, fmt.Sprintf("INGEST_SINK (%q) must be one of: postgres, parquet, none", c.Ingest.Sink))
	}

	// Database validation
	if c.Database.MaxConns < c.Database.MinConns {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)",
			c.Database.MaxConns, c.Database.MinConns))
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "DB_MAX_CONNS must be positive")
	}
	if c.Database.MinConns < 0 {
		errs = append(errs, "DB_MIN_CONNS must be non-negative")
	}

	// Ingest validation
	if c.Ingest.DataDir == "" {
		errs = append(errs, "DATA_DIR is required")
	}
	if c.Ingest.MaxFileSize <= 0 {
		errs = append(errs, "INGEST_MAX_FILE_SIZE must be positive")
	}
	if c.Ingest.Timeout < 0 {
		errs = append(errs, "INGEST_TIMEOUT must be non-negative")
	}

	// Extract validation
	if c.Extract.Timeout < 0 {
		errs = append(errs, "EXTRACT_TIMEOUT must be non-negative")
	}
	if c.Extract.MountTarget != "" && !strings.HasPrefix(c.Extract.MountTarget, "/") {
		errs = append(errs, fmt.Sprintf("EXTRACT_MOUNT_TARGET (%q) must be an absolute container path", c.Extract.MountTarget))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// RequireSink checks the settings the selected sink needs. Only the ingest
// command writes to a sink, so Validate leaves these out.
func (c *Config) RequireSink() error {
	switch strings.ToLower(c.Ingest.Sink) {
	case SinkPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required when INGEST_SINK is postgres")
		}
	case SinkParquet:
		if c.Ingest.OutDir == "" {
			return errors.New("INGEST_OUT_DIR is required when INGEST_SINK is parquet")
		}
	}
	return nil
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Database: {URL: [MASKED], Schema: %q, MaxConns: %d, MinConns: %d}, ",
		c.Database.Schema, c.Database.MaxConns, c.Database.MinConns))
	b.WriteString(fmt.Sprintf("Ingest: {DataDir: %q, Sink: %q, OutDir: %q, MaxFileSize: %d}, ",
		c.Ingest.DataDir, c.Ingest.Sink, c.Ingest.OutDir, c.Ingest.MaxFileSize))
	b.WriteString(fmt.Sprintf("Extract: {DockerfileDir: %q, ImageTag: %q, Clean: %v}, ",
		c.Extract.DockerfileDir, c.Extract.ImageTag, c.Extract.Clean))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
