package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	yml := `server:
  port: 8080
  read_timeout: 5s
database:
  path: /tmp/acc.db
log:
  level: debug
  format: text
work_orders:
  max_id_attempts: 20
  default_page_size: 25
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCTRACK_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("env should override yaml port, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected 5s read timeout, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 30*time.Second {
		t.Errorf("unset fields keep defaults, got %s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Path != "/tmp/acc.db" || cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.WorkOrders.MaxIDAttempts != 20 || cfg.WorkOrders.DefaultPageSize != 25 {
		t.Errorf("unexpected work order config %+v", cfg.WorkOrders)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ACCTRACK_DB_PATH=from-dotenv.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCTRACK_DB_PATH", "")
	os.Unsetenv("ACCTRACK_DB_PATH")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "from-dotenv.db" {
		t.Errorf("expected path from .env, got %q", cfg.Database.Path)
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("database:\n  path: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACCTRACK_DB_PATH", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not reject a config a flag can still fix: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected empty database path to fail validation")
	}
	cfg.Database.Path = "override.db"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected overridden config to validate: %v", err)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ACCTRACK_MAX_ID_ATTEMPTS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric ACCTRACK_MAX_ID_ATTEMPTS")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"port":      func(c *Config) { c.Server.Port = 0 },
		"db path":   func(c *Config) { c.Database.Path = "" },
		"level":     func(c *Config) { c.Log.Level = "loud" },
		"format":    func(c *Config) { c.Log.Format = "xml" },
		"attempts":  func(c *Config) { c.WorkOrders.MaxIDAttempts = 0 },
		"page size": func(c *Config) { c.WorkOrders.DefaultPageSize = 101 },
		"rate":      func(c *Config) { c.Server.RateLimit = -1 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestNewLogger(t *testing.T) {
	logg, err := NewLogger(LogConfig{Level: "warn", Format: "text"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if logg.GetLevel() != logrus.WarnLevel {
		t.Errorf("expected warn level, got %s", logg.GetLevel())
	}
	if _, ok := logg.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("expected text formatter, got %T", logg.Formatter)
	}
	if _, err := NewLogger(LogConfig{Level: "nope"}); err == nil {
		t.Error("expected error for bad level")
	}
}
