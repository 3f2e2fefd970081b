package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	DKB        DKBConfig        `mapstructure:"dkb"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	Migrations string `mapstructure:"migrations"`
}

// DKBConfig holds transport settings for the DKB adapter.
type DKBConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	MaxPages int           `mapstructure:"max_pages"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ClassifierConfig points at an optional YAML rule list. Empty means the
// built-in rules.
type ClassifierConfig struct {
	RulesFile string `mapstructure:"rules_file"`
}

// SyncConfig bounds one orchestrated pass.
type SyncConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig selects level and output format ("console" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and env. Env var overrides use prefix FINSYNC_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "finsync", "finsync.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("dkb.base_url", "https://banking.dkb.de")
	v.SetDefault("dkb.max_pages", 50)
	v.SetDefault("dkb.timeout", 30*time.Second)
	v.SetDefault("classifier.rules_file", "")
	v.SetDefault("sync.timeout", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("FINSYNC_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "finsync"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FINSYNC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Bank credentials never go here; they live in the secrets store.
func Save(cfg Config) error {
	path := os.Getenv("FINSYNC_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "finsync", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("dkb.base_url", cfg.DKB.BaseURL)
	v.Set("dkb.max_pages", cfg.DKB.MaxPages)
	v.Set("dkb.timeout", cfg.DKB.Timeout.String())
	v.Set("classifier.rules_file", cfg.Classifier.RulesFile)
	v.Set("sync.timeout", cfg.Sync.Timeout.String())
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
