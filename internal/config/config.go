package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultLocalModel   = "dolphin-llama3:8b"
	DefaultCloudModel   = "claude-sonnet-4-20250514"
	DefaultAnthropicURL = "https://api.anthropic.com/v1/messages"
	DefaultMaxTokens    = 4096
	DefaultMode         = "auto"
	DefaultProbeTimeout = 2 * time.Second
	DefaultChatTimeout  = 120 * time.Second
)

const DefaultLocalSystemPrompt = `You are Jarvis, an advanced AI assistant running locally via Ollama.

Personality:
- Calm, articulate and sophisticated with a subtle dry wit
- Occasionally address the user as "sir", but not excessively
- Efficient and direct, no unnecessary preamble

Context:
- You run entirely on the user's own hardware, so the conversation stays private
- Prioritize being genuinely helpful`

const DefaultCloudSystemPrompt = `You are Jarvis, a sophisticated AI assistant powered by Claude.

Personality:
- Calm, articulate and sophisticated with a subtle dry wit
- Occasionally address the user as "sir", but not excessively
- Thoughtful and thorough on complex topics

You are running in cloud mode, which is best suited to analysis, coding, research and strategy.
Be helpful and skip unnecessary preamble.`

var ErrInvalidConfig = errors.New("invalid config")

// Config is the effective configuration, built once at startup.
type Config struct {
	Mode  string      `mapstructure:"mode" yaml:"mode"`
	Local LocalConfig `mapstructure:"local" yaml:"local"`
	Cloud CloudConfig `mapstructure:"cloud" yaml:"cloud"`
}

type LocalConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Model        string        `mapstructure:"model" yaml:"model"`
	SystemPrompt string        `mapstructure:"system_prompt" yaml:"system_prompt"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	ChatTimeout  time.Duration `mapstructure:"chat_timeout" yaml:"chat_timeout"`
}

type CloudConfig struct {
	APIKey       string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	Model        string        `mapstructure:"model" yaml:"model"`
	MaxTokens    int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	SystemPrompt string        `mapstructure:"system_prompt" yaml:"system_prompt"`
	ChatTimeout  time.Duration `mapstructure:"chat_timeout" yaml:"chat_timeout"`
}

// Overrides holds command-line values that take precedence over file and environment.
// Empty fields leave the loaded value unchanged.
type Overrides struct {
	Mode       string
	Host       string
	LocalModel string
	CloudModel string
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"mode":             "JARVIS_MODE",
	"local.host":       "OLLAMA_HOST",
	"local.model":      "OLLAMA_MODEL",
	"cloud.api_key":    "ANTHROPIC_API_KEY",
	"cloud.base_url":   "ANTHROPIC_BASE_URL",
	"cloud.model":      "CLAUDE_MODEL",
	"cloud.max_tokens": "CLAUDE_MAX_TOKENS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", DefaultMode)
	v.SetDefault("local.host", DefaultOllamaHost)
	v.SetDefault("local.model", DefaultLocalModel)
	v.SetDefault("local.system_prompt", DefaultLocalSystemPrompt)
	v.SetDefault("local.probe_timeout", DefaultProbeTimeout)
	v.SetDefault("local.chat_timeout", DefaultChatTimeout)
	v.SetDefault("cloud.base_url", DefaultAnthropicURL)
	v.SetDefault("cloud.model", DefaultCloudModel)
	v.SetDefault("cloud.max_tokens", DefaultMaxTokens)
	v.SetDefault("cloud.system_prompt", DefaultCloudSystemPrompt)
	v.SetDefault("cloud.chat_timeout", DefaultChatTimeout)
}

// Load reads the optional config file, applies environment overrides and
// resolves secret references in the credential and host.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return load(v)
}

// LoadFile is like Load but reads only the given file.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	apiKey, err := ResolveValue(cfg.Cloud.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cloud.api_key: %w", err)
	}
	cfg.Cloud.APIKey = apiKey

	host, err := ResolveValue(cfg.Local.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve local.host: %w", err)
	}
	cfg.Local.Host = host

	cfg.Mode = strings.ToLower(strings.TrimSpace(cfg.Mode))
	return &cfg, nil
}

// ApplyOverrides returns a copy of c with the non-empty overrides applied.
func (c Config) ApplyOverrides(o Overrides) Config {
	if o.Mode != "" {
		c.Mode = strings.ToLower(strings.TrimSpace(o.Mode))
	}
	if o.Host != "" {
		c.Local.Host = o.Host
	}
	if o.LocalModel != "" {
		c.Local.Model = o.LocalModel
	}
	if o.CloudModel != "" {
		c.Cloud.Model = o.CloudModel
	}
	return c
}

// Validate checks the mode and host. A missing credential is valid: the
// cloud backend is simply reported unavailable.
func (c Config) Validate() error {
	switch c.Mode {
	case "local", "cloud", "auto":
	default:
		return fmt.Errorf("%w: mode %q (valid: local, cloud, auto)", ErrInvalidConfig, c.Mode)
	}
	u, err := url.Parse(c.Local.Host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: local.host %q must be an http(s) URL", ErrInvalidConfig, c.Local.Host)
	}
	if c.Local.Model == "" {
		return fmt.Errorf("%w: local.model is empty", ErrInvalidConfig)
	}
	if c.Cloud.Model == "" {
		return fmt.Errorf("%w: cloud.model is empty", ErrInvalidConfig)
	}
	if c.Cloud.MaxTokens <= 0 {
		return fmt.Errorf("%w: cloud.max_tokens must be positive", ErrInvalidConfig)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Cloud.APIKey != "" {
		c.Cloud.APIKey = redact(c.Cloud.APIKey)
	}
	return c
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

func configDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(dir, "jarvis"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
