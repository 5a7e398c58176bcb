// Package config loads the service configuration from a YAML file and lets
// environment variables with the same key override individual settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	GRPCPort         int      `yaml:"GRPC_PORT"`
	HTTPPort         int      `yaml:"HTTP_PORT"`
	DBDriver         string   `yaml:"DB_DRIVER"`
	DBDSN            string   `yaml:"DB_DSN"`
	DBHost           string   `yaml:"DB_HOST"`
	DBPort           int      `yaml:"DB_PORT"`
	DBUser           string   `yaml:"DB_USER"`
	DBPassword       string   `yaml:"DB_PASSWORD"`
	DBName           string   `yaml:"DB_NAME"`
	DBSSLMode        string   `yaml:"DB_SSLMODE"`
	DBConnectRetries int      `yaml:"DB_CONNECT_RETRIES"`
	KafkaBrokers     []string `yaml:"KAFKA_BROKERS"`
	Topic            string   `yaml:"TOPIC"`
	LogLevel         string   `yaml:"LOG_LEVEL"`
	OTELEndpoint     string   `yaml:"OTEL_ENDPOINT"`
	ServiceName      string   `yaml:"SERVICE_NAME"`
	Environment      string   `yaml:"ENVIRONMENT"`
	DefaultPageSize  int      `yaml:"DEFAULT_PAGE_SIZE"`
	MaxPageSize      int      `yaml:"MAX_PAGE_SIZE"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		GRPCPort:         50051,
		HTTPPort:         8080,
		DBDriver:         "sqlite",
		DBDSN:            "file::memory:?cache=shared",
		DBSSLMode:        "disable",
		DBConnectRetries: 5,
		Topic:            "orgadmin.events",
		LogLevel:         "info",
		ServiceName:      "orgadmin",
		Environment:      "development",
		DefaultPageSize:  20,
		MaxPageSize:      100,
	}
}

// Load reads path on top of the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_DRIVER":     &c.DBDriver,
		"DB_DSN":        &c.DBDSN,
		"DB_HOST":       &c.DBHost,
		"DB_USER":       &c.DBUser,
		"DB_PASSWORD":   &c.DBPassword,
		"DB_NAME":       &c.DBName,
		"DB_SSLMODE":    &c.DBSSLMode,
		"TOPIC":         &c.Topic,
		"LOG_LEVEL":     &c.LogLevel,
		"OTEL_ENDPOINT": &c.OTELEndpoint,
		"SERVICE_NAME":  &c.ServiceName,
		"ENVIRONMENT":   &c.Environment,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GRPC_PORT":          &c.GRPCPort,
		"HTTP_PORT":          &c.HTTPPort,
		"DB_PORT":            &c.DBPort,
		"DB_CONNECT_RETRIES": &c.DBConnectRetries,
		"DEFAULT_PAGE_SIZE":  &c.DefaultPageSize,
		"MAX_PAGE_SIZE":      &c.MaxPageSize,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.KafkaBrokers = splitCSV(v)
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.DBHost == "" {
			return errors.New("DB_HOST is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		return errors.New("HTTP_PORT and GRPC_PORT must be positive")
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return errors.New("DEFAULT_PAGE_SIZE must be positive and not exceed MAX_PAGE_SIZE")
	}
	return nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
