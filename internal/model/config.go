package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Supported AI providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// UserConfig identifies the local user acting in the TUI and CLI.
type UserConfig struct {
	ID   string `mapstructure:"id" yaml:"id"`
	Name string `mapstructure:"name" yaml:"name"`
}

// AIConfig holds settings for the completion backend.
type AIConfig struct {
	// Provider selects the backend ("anthropic" or "openai").
	Provider string `mapstructure:"provider" yaml:"provider"`

	Model      string `mapstructure:"model" yaml:"model"`
	MaxTokens  int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// EngagementConfig holds settings for vote and save mutations.
type EngagementConfig struct {
	// TimeoutSec bounds each remote mutation; expiry counts as failure.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// GitHubConfig holds settings for issue mirroring.
type GitHubConfig struct {
	BaseURL         string `mapstructure:"base_url" yaml:"base_url"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	MaxConcurrency  int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
	User       UserConfig       `mapstructure:"user" yaml:"user"`
	AI         AIConfig         `mapstructure:"ai" yaml:"ai"`
	Engagement EngagementConfig `mapstructure:"engagement" yaml:"engagement"`
	GitHub     GitHubConfig     `mapstructure:"github" yaml:"github"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
}

// ConfigDir returns ~/.config/devdash, falling back to the working
// directory when the home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "devdash")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/devdash/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Path: filepath.Join(ConfigDir(), "devdash.db"),
		},
		User: UserConfig{
			ID:   "local",
			Name: "me",
		},
		AI: AIConfig{
			Provider:   ProviderAnthropic,
			Model:      "claude-sonnet-4-5-20250929",
			MaxTokens:  4096,
			TimeoutSec: 60,
		},
		Engagement: EngagementConfig{
			TimeoutSec: 10,
		},
		GitHub: GitHubConfig{
			BaseURL:         "https://api.github.com",
			PollIntervalSec: 300,
			MaxConcurrency:  4,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults registers every default with v so that missing keys and
// environment overrides resolve consistently.
func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("user.id", cfg.User.ID)
	v.SetDefault("user.name", cfg.User.Name)
	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.timeout_sec", cfg.AI.TimeoutSec)
	v.SetDefault("engagement.timeout_sec", cfg.Engagement.TimeoutSec)
	v.SetDefault("github.base_url", cfg.GitHub.BaseURL)
	v.SetDefault("github.poll_interval_sec", cfg.GitHub.PollIntervalSec)
	v.SetDefault("github.max_concurrency", cfg.GitHub.MaxConcurrency)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("display.theme", cfg.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with DEVDASH_-prefixed environment variables
// (e.g. DEVDASH_AI_PROVIDER). If the file does not exist, defaults are used.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("devdash")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// normalize replaces out-of-range values with defaults and rejects
// settings that cannot work.
func (c *AppConfig) normalize() error {
	def := defaultAppConfig()

	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	switch c.AI.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	case "":
		c.AI.Provider = def.AI.Provider
	default:
		return fmt.Errorf("unknown ai.provider %q", c.AI.Provider)
	}

	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = def.AI.MaxTokens
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = def.AI.TimeoutSec
	}
	if c.Engagement.TimeoutSec <= 0 {
		c.Engagement.TimeoutSec = def.Engagement.TimeoutSec
	}
	if c.GitHub.PollIntervalSec <= 0 {
		c.GitHub.PollIntervalSec = def.GitHub.PollIntervalSec
	}
	if c.GitHub.MaxConcurrency <= 0 {
		c.GitHub.MaxConcurrency = def.GitHub.MaxConcurrency
	}
	if strings.TrimSpace(c.User.ID) == "" {
		c.User.ID = def.User.ID
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

	v.Set("database", cfg.Database)
	v.Set("user", cfg.User)
	v.Set("ai", cfg.AI)
	v.Set("engagement", cfg.Engagement)
	v.Set("github", cfg.GitHub)
	v.Set("server", cfg.Server)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
