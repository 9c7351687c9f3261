package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Service ServiceConfig
	UI      UIConfig
	Log     LogConfig
}

// ServiceConfig holds the chat service endpoint settings.
type ServiceConfig struct {
	URL       string
	Timeout   time.Duration
	UserAgent string `mapstructure:"user_agent"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Markdown       bool
	MarkdownStyle  string `mapstructure:"markdown_style"`
	UserLabel      string `mapstructure:"user_label"`
	BotLabel       string `mapstructure:"bot_label"`
	ShowTimestamps bool   `mapstructure:"show_timestamps"`
}

// LogConfig holds logger settings. The TUI always logs to Path.
type LogConfig struct {
	Path  string
	Level string
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Load reads configuration from .env, file and env. Env var overrides use prefix CASECHAT_.
func Load() (Config, error) {
	// a missing .env is the common case
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("service.url", "http://localhost:5000")
	v.SetDefault("service.timeout", "0s")
	v.SetDefault("service.user_agent", "casechat")
	v.SetDefault("ui.markdown", false)
	v.SetDefault("ui.markdown_style", "dark")
	v.SetDefault("ui.user_label", "You")
	v.SetDefault("ui.bot_label", "Bot")
	v.SetDefault("ui.show_timestamps", false)
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "state", "casechat", "casechat.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CASECHAT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "casechat"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CASECHAT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	return c, nil
}

// Validate reports the first setting that would keep the client from starting.
func (c Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Service.URL))
	if err != nil {
		return fmt.Errorf("service.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("service.url: scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("service.url: missing host in %q", c.Service.URL)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("service.timeout: must not be negative, got %s", c.Service.Timeout)
	}
	// Load normalizes the level; a hand-built Config must already be lower case.
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("CASECHAT_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "casechat", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("service.url", cfg.Service.URL)
	v.Set("service.timeout", cfg.Service.Timeout.String())
	v.Set("service.user_agent", cfg.Service.UserAgent)
	v.Set("ui.markdown", cfg.UI.Markdown)
	v.Set("ui.markdown_style", cfg.UI.MarkdownStyle)
	v.Set("ui.user_label", cfg.UI.UserLabel)
	v.Set("ui.bot_label", cfg.UI.BotLabel)
	v.Set("ui.show_timestamps", cfg.UI.ShowTimestamps)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
