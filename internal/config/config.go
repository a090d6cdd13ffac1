// Package config handles configuration loading and validation for biblia-tui.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the api.bible REST endpoint.
	DefaultBaseURL = "https://api.scripture.api.bible/v1"
	// DefaultBibleID identifies the Reina-Valera 1909 text on api.bible.
	DefaultBibleID = "592420522e16049f-01"
	// DefaultTheme is the theme key used when none is configured.
	DefaultTheme = "verde"

	appName = "biblia-tui"
)

// Config holds the application configuration.
type Config struct {
	API   APIConfig  `yaml:"api"`
	Auth  AuthConfig `yaml:"auth"`
	Theme string     `yaml:"theme"`
}

// APIConfig configures the Bible content provider.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Key     string        `yaml:"key"`
	BibleID string        `yaml:"bible_id"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig configures the sign-in methods offered on the login screen.
type AuthConfig struct {
	GitHub     OAuthClient `yaml:"github"`
	Google     OAuthClient `yaml:"google"`
	AllowGuest bool        `yaml:"allow_guest"` // offer a local sign-in without a provider
}

// OAuthClient holds the credentials of a registered OAuth application.
type OAuthClient struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// Enabled reports whether the client has enough configuration to be offered.
func (o OAuthClient) Enabled() bool {
	return o.ClientID != ""
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			BibleID: DefaultBibleID,
			Timeout: 15 * time.Second,
		},
		Theme: DefaultTheme,
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// DefaultLogFile returns the log file location under the user cache dir.
func DefaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "biblia.log")
}

// Load reads configuration from the given path.
// If path is empty or doesn't exist, returns defaults. The result is not
// validated; callers validate after applying flag overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the configuration to path, creating parent directories.
// The file holds credentials and is written with owner-only permissions.
func Save(path string, cfg Config) error {
	if path == "" {
		return fmt.Errorf("config path cannot be empty")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.BibleID == "" {
		c.API.BibleID = defaults.API.BibleID
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// Validate checks the content provider settings.
func (a APIConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}

	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q must be an absolute URL", a.BaseURL)
	}

	if a.Key == "" {
		return fmt.Errorf("api.key cannot be empty")
	}

	if a.BibleID == "" {
		return fmt.Errorf("api.bible_id cannot be empty")
	}

	if a.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}

	return nil
}

// Validate checks that at least one sign-in method is available.
func (a AuthConfig) Validate() error {
	if !a.GitHub.Enabled() && !a.Google.Enabled() && !a.AllowGuest {
		return fmt.Errorf("auth: no sign-in method configured (set auth.github.client_id, auth.google.client_id or auth.allow_guest)")
	}
	if a.Google.Enabled() && a.Google.ClientSecret == "" {
		return fmt.Errorf("auth.google.client_secret cannot be empty when auth.google.client_id is set")
	}
	return nil
}

// Environment variables that override the auth section.
const (
	EnvGitHubClientID     = "BIBLIA_GITHUB_CLIENT_ID"
	EnvGoogleClientID     = "BIBLIA_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "BIBLIA_GOOGLE_CLIENT_SECRET"
)

// ApplyEnv overrides OAuth client settings from the environment. API
// settings are overridden through CLI flag sources instead.
func ApplyEnv(c *Config) {
	if v, ok := os.LookupEnv(EnvGitHubClientID); ok {
		c.Auth.GitHub.ClientID = v
	}
	if v, ok := os.LookupEnv(EnvGoogleClientID); ok {
		c.Auth.Google.ClientID = v
	}
	if v, ok := os.LookupEnv(EnvGoogleClientSecret); ok {
		c.Auth.Google.ClientSecret = v
	}
}
