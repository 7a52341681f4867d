package model

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StoreConfig controls the on-device notification store.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	// MaxPerCategory caps each per-identity, per-category list.
	// Zero keeps everything.
	MaxPerCategory int `mapstructure:"max_per_category" yaml:"max_per_category"`
}

// PushConfig controls the push-delivery listener.
type PushConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// URL is the NATS server to subscribe to.
	URL string `mapstructure:"url" yaml:"url"`

	// SubjectPrefix is prepended to "<identity>.<category>".
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`

	// Embedded starts an in-process NATS server instead of dialing URL.
	Embedded bool `mapstructure:"embedded" yaml:"embedded"`
}

// Theme names accepted by display.theme.
const (
	ThemeDefault = "default"
	ThemeDark    = "dark"
	ThemeLight   = "light"
	ThemeMono    = "mono"
)

// Themes lists every theme name in display order.
var Themes = []string{ThemeDefault, ThemeDark, ThemeLight, ThemeMono}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme is one of Themes. Empty means ThemeDefault.
	Theme string `mapstructure:"theme" yaml:"theme"`

	// WeekStart is "sunday" or "monday".
	WeekStart string `mapstructure:"week_start" yaml:"week_start"`
}

// KeyringConfig controls where the signed-in identity is kept.
type KeyringConfig struct {
	// FileDir is used when no OS keychain is available.
	FileDir string `mapstructure:"file_dir" yaml:"file_dir"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Push    PushConfig    `mapstructure:"push" yaml:"push"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Keyring KeyringConfig `mapstructure:"keyring" yaml:"keyring"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// WeekStartDay converts Display.WeekStart to a time.Weekday.
func (c *AppConfig) WeekStartDay() time.Weekday {
	if strings.EqualFold(c.Display.WeekStart, "monday") {
		return time.Monday
	}
	return time.Sunday
}

// DefaultConfigDir returns ~/.config/inbox.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "inbox")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/inbox/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := DefaultConfigDir()
	return &AppConfig{
		Store: StoreConfig{
			Path:           filepath.Join(dir, "inbox.db"),
			MaxPerCategory: 100,
		},
		Push: PushConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "inbox.push",
		},
		Display: DisplayConfig{
			Theme:     ThemeDefault,
			WeekStart: "sunday",
		},
		Keyring: KeyringConfig{
			FileDir: filepath.Join(dir, "credentials"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults are used. Environment variables
// prefixed INBOX_ override file values (INBOX_PUSH_URL for push.url).
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("inbox")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values and so
	// AutomaticEnv knows which keys exist.
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.max_per_category", def.Store.MaxPerCategory)
	v.SetDefault("push.enabled", def.Push.Enabled)
	v.SetDefault("push.url", def.Push.URL)
	v.SetDefault("push.subject_prefix", def.Push.SubjectPrefix)
	v.SetDefault("push.embedded", def.Push.Embedded)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("display.week_start", def.Display.WeekStart)
	v.SetDefault("keyring.file_dir", def.Keyring.FileDir)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *AppConfig) Validate() error {
	switch strings.ToLower(c.Display.WeekStart) {
	case "", "sunday", "monday":
	default:
		return fmt.Errorf("display.week_start must be sunday or monday, got %q", c.Display.WeekStart)
	}
	if t := strings.ToLower(c.Display.Theme); t != "" && !slices.Contains(Themes, t) {
		return fmt.Errorf("display.theme must be one of %s, got %q", strings.Join(Themes, ", "), c.Display.Theme)
	}
	if c.Store.MaxPerCategory < 0 {
		return fmt.Errorf("store.max_per_category must not be negative")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("store", cfg.Store)
	v.Set("push", cfg.Push)
	v.Set("display", cfg.Display)
	v.Set("keyring", cfg.Keyring)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
