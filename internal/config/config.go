// Package config resolves the configuration directory and client settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "lifeos"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// StateDir holds the durable key/value state (tokens, last tab).
	StateDir = "state"

	// LogFile is the default log destination for the interactive shell.
	LogFile = "lifeos.log"

	// EnvPrefix prefixes environment overrides, e.g. LIFEOS_BASE_URL.
	EnvPrefix = "LIFEOS"
)

// Defaults.
const (
	DefaultBaseURL       = "http://localhost:8000/api/v1"
	DefaultTimeout       = 10 * time.Second
	DefaultToastDisplay  = 3 * time.Second
	DefaultToastCooldown = 300 * time.Millisecond
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `yaml:"dir"`

	// BaseURL is the REST API root, including the version prefix.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP call.
	Timeout time.Duration `yaml:"timeout"`

	// ToastDisplay and ToastCooldown pace the notification line.
	ToastDisplay  time.Duration `yaml:"toast_display"`
	ToastCooldown time.Duration `yaml:"toast_cooldown"`

	// LogPath is where the interactive shell writes its log.
	LogPath string `yaml:"log_file"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`

	// Quiet suppresses informational output.
	Quiet bool `yaml:"-"`

	// Yes pre-approves confirmation prompts.
	Yes bool `yaml:"-"`
}

// New creates a Config with defaults for the given directory.
// If configDir is empty, uses XDG_CONFIG_HOME/lifeos or $HOME/.config/lifeos.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid config dir: %w", err)
	}
	return &Config{
		Dir:           dir,
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		ToastDisplay:  DefaultToastDisplay,
		ToastCooldown: DefaultToastCooldown,
		LogPath:       filepath.Join(dir, LogFile),
	}, nil
}

// Load creates a Config and layers config.yaml and LIFEOS_* environment
// variables over the defaults.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("base_url", cfg.BaseURL)
	v.SetDefault("timeout", cfg.Timeout)
	v.SetDefault("toast_display", cfg.ToastDisplay)
	v.SetDefault("toast_cooldown", cfg.ToastCooldown)
	v.SetDefault("log_file", cfg.LogPath)
	v.SetDefault("debug", false)

	v.SetConfigName(strings.TrimSuffix(ConfigFile, filepath.Ext(ConfigFile)))
	v.SetConfigType("yaml")
	v.AddConfigPath(cfg.Dir)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	}

	cfg.BaseURL = strings.TrimRight(v.GetString("base_url"), "/")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.ToastDisplay = v.GetDuration("toast_display")
	cfg.ToastCooldown = v.GetDuration("toast_cooldown")
	cfg.Debug = v.GetBool("debug")
	if p, err := homedir.Expand(v.GetString("log_file")); err == nil {
		cfg.LogPath = p
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url must not be empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := homedir.Dir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// StatePath returns the directory backing the token store.
func (c *Config) StatePath() string {
	return filepath.Join(c.Dir, StateDir)
}

// ConfigPath returns the path of the optional settings file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// YAML renders the effective settings.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(struct {
		Dir           string `yaml:"dir"`
		BaseURL       string `yaml:"base_url"`
		Timeout       string `yaml:"timeout"`
		ToastDisplay  string `yaml:"toast_display"`
		ToastCooldown string `yaml:"toast_cooldown"`
		LogPath       string `yaml:"log_file"`
		Debug         bool   `yaml:"debug"`
	}{
		Dir:           c.Dir,
		BaseURL:       c.BaseURL,
		Timeout:       c.Timeout.String(),
		ToastDisplay:  c.ToastDisplay.String(),
		ToastCooldown: c.ToastCooldown.String(),
		LogPath:       c.LogPath,
		Debug:         c.Debug,
	})
}
