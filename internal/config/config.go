package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the global ~/.craft/config.toml. Environment variables
// with the CRAFT_ prefix override file values (CRAFT_BASE_URL, CRAFT_PROFILE,
// CRAFT_NOTIFY_POLL_SECONDS, CRAFT_CHAT_POLL_SECONDS).
type Config struct {
	BaseURL           string `toml:"base_url" envconfig:"BASE_URL"`
	DefaultProfile    string `toml:"default_profile" envconfig:"PROFILE"`
	NotifyPollSeconds int    `toml:"notify_poll_seconds" envconfig:"NOTIFY_POLL_SECONDS"`
	ChatPollSeconds   int    `toml:"chat_poll_seconds" envconfig:"CHAT_POLL_SECONDS"`
}

// Default returns the built-in configuration. The poll cadences mirror the
// backend's expectations: notifications are cheap and slow, chat is hot.
func Default() *Config {
	return &Config{
		BaseURL:           "http://localhost:8080/api",
		NotifyPollSeconds: 30,
		ChatPollSeconds:   3,
	}
}

// Load reads config from the given path, starting from defaults and applying
// environment overrides last. A missing file is not an error; everything else
// (unreadable file, malformed TOML, bad env value) is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err := envconfig.Process("craft", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// OAuthURL returns the backend's Google sign-in entry point. Finishing the
// flow happens in a browser; the client only adopts the resulting token.
func (c *Config) OAuthURL() string {
	return strings.TrimSuffix(c.BaseURL, "/api") + "/oauth2/authorization/google"
}

// NotifyPollInterval returns the notification polling cadence.
func (c *Config) NotifyPollInterval() time.Duration {
	return time.Duration(c.NotifyPollSeconds) * time.Second
}

// ChatPollInterval returns the chat polling cadence.
func (c *Config) ChatPollInterval() time.Duration {
	return time.Duration(c.ChatPollSeconds) * time.Second
}
