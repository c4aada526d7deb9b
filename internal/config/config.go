// Package config handles the XDG configuration directory, the config file,
// and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"todosync/internal/environment"
	"todosync/internal/logger"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// EnvPrefix prefixes every environment override (TODO_FIREBASE_API_KEY, ...).
	EnvPrefix = "TODO"

	// ConfigFile is the optional YAML configuration filename.
	ConfigFile = "config.yaml"

	// EnvFile is the optional dotenv filename, read from the config directory.
	EnvFile = ".env"

	// SessionFile is the stored session filename.
	SessionFile = "session.json"

	// ProfileDBFile is the local profile database filename.
	ProfileDBFile = "profile.db"

	// DefaultCollection is the task collection used when none is configured.
	DefaultCollection = "todos"
)

// ErrNotConfigured is returned by Validate when backend settings are missing.
var ErrNotConfigured = errors.New("backend not configured")

// Firebase holds the backend project settings.
// Credentials are never compiled in; they come from config.yaml or the environment.
type Firebase struct {
	APIKey     string `yaml:"api_key" env:"FIREBASE_API_KEY"`
	ProjectID  string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	DatabaseID string `yaml:"database_id" env:"FIREBASE_DATABASE_ID" default:"(default)"`
	Collection string `yaml:"collection" env:"COLLECTION" default:"todos"`

	// APITimeout bounds each backend call.
	APITimeout time.Duration `yaml:"api_timeout" env:"API_TIMEOUT" default:"5s"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"-"`

	// Debug enables debug logging.
	Debug bool `yaml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-"`

	Firebase Firebase       `yaml:"firebase"`
	Log      logger.Options `yaml:"log"`
}

// New creates a Config for the default or specified config directory and
// loads settings from, in increasing precedence: defaults, config.yaml,
// the .env file in the directory, and the process environment.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load reads config.yaml and the environment into c.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.ConfigPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	if err := environment.LoadPath(filepath.Join(c.Dir, EnvFile)); err != nil {
		return err
	}
	if err := environment.ParseEnvTags(EnvPrefix, &c.Firebase); err != nil {
		return fmt.Errorf("firebase config: %w", err)
	}
	if err := environment.ParseEnvTags(EnvPrefix, &c.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

// Validate reports missing backend settings.
func (c *Config) Validate() error {
	if c.Firebase.APIKey == "" {
		return fmt.Errorf("%w: firebase api_key missing (set %s or %s)",
			ErrNotConfigured, environment.Key(EnvPrefix, "FIREBASE_API_KEY"), c.ConfigPath())
	}
	if c.Firebase.ProjectID == "" {
		return fmt.Errorf("%w: firebase project_id missing (set %s or %s)",
			ErrNotConfigured, environment.Key(EnvPrefix, "FIREBASE_PROJECT_ID"), c.ConfigPath())
	}
	return nil
}

// Collection returns the task collection name.
func (c *Config) Collection() string {
	if c.Firebase.Collection == "" {
		return DefaultCollection
	}
	return c.Firebase.Collection
}

// Logger builds the logger for this configuration.
// Debug forces level DEBUG.
func (c *Config) Logger(opts ...logger.Option) *logger.Logger {
	if c.Debug {
		opts = append(opts, logger.WithLevel("DEBUG"))
	}
	return logger.New(c.Log, opts...)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// ProfileDBPath returns the path to the local profile database.
func (c *Config) ProfileDBPath() string {
	return filepath.Join(c.Dir, ProfileDBFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}
