package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"acctrack/internal/validation"
)

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// RateLimit is the number of API requests allowed per client IP per
	// minute; 0 disables limiting.
	RateLimit int `yaml:"rate_limit"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkOrderConfig struct {
	MaxIDAttempts   int `yaml:"max_id_attempts"`
	DefaultPageSize int `yaml:"default_page_size"`
}

// Config is the full service configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	Log        LogConfig       `yaml:"log"`
	WorkOrders WorkOrderConfig `yaml:"work_orders"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server:     ServerConfig{Port: 9000, ReadTimeout: 15 * time.Second, WriteTimeout: 30 * time.Second, RateLimit: 600},
		Database:   DatabaseConfig{Path: "accessories.db"},
		Log:        LogConfig{Level: "info", Format: "json"},
		WorkOrders: WorkOrderConfig{MaxIDAttempts: 100, DefaultPageSize: validation.DefaultPageSize},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if path
// is non-empty), a .env file in the working directory (if present) and
// ACCTRACK_* environment variables, in that order of precedence.
// The result is not validated; callers apply flag overrides first and then
// call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ACCTRACK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCTRACK_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("ACCTRACK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("ACCTRACK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ACCTRACK_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ACCTRACK_MAX_ID_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCTRACK_MAX_ID_ATTEMPTS: %w", err)
		}
		cfg.WorkOrders.MaxIDAttempts = n
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.WorkOrders.MaxIDAttempts < 1 {
		return errors.New("work_orders.max_id_attempts must be positive")
	}
	if c.WorkOrders.DefaultPageSize < 1 || c.WorkOrders.DefaultPageSize > validation.MaxPageSize {
		return fmt.Errorf("work_orders.default_page_size must be between 1 and %d", validation.MaxPageSize)
	}
	return nil
}
