package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Mode != "auto" {
		t.Fatalf("mode=%q, want %q", cfg.Mode, "auto")
	}
	if cfg.Local.Host != DefaultOllamaHost || cfg.Local.Model != DefaultLocalModel {
		t.Fatalf("local=%+v", cfg.Local)
	}
	if cfg.Cloud.Model != DefaultCloudModel || cfg.Cloud.BaseURL != DefaultAnthropicURL || cfg.Cloud.MaxTokens != DefaultMaxTokens {
		t.Fatalf("cloud=%+v", cfg.Cloud)
	}
	if cfg.Local.ProbeTimeout != 2*time.Second || cfg.Cloud.ChatTimeout != 120*time.Second {
		t.Fatalf("timeouts=%v/%v", cfg.Local.ProbeTimeout, cfg.Cloud.ChatTimeout)
	}
	if cfg.Local.SystemPrompt == "" || cfg.Cloud.SystemPrompt == "" {
		t.Fatalf("system prompts should default to non-empty")
	}
	if cfg.Cloud.APIKey != "" {
		t.Fatalf("api key should be empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileValues(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFile(writeConfig(t, `
mode: Cloud
local:
  host: http://gpu-box:11434
  model: llama3.2:3b
  probe_timeout: 500ms
cloud:
  api_key: sk-from-file
  max_tokens: 1024
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Mode != "cloud" {
		t.Fatalf("mode=%q, want %q", cfg.Mode, "cloud")
	}
	if cfg.Local.Host != "http://gpu-box:11434" || cfg.Local.Model != "llama3.2:3b" {
		t.Fatalf("local=%+v", cfg.Local)
	}
	if cfg.Local.ProbeTimeout != 500*time.Millisecond {
		t.Fatalf("probe_timeout=%v", cfg.Local.ProbeTimeout)
	}
	if cfg.Cloud.APIKey != "sk-from-file" || cfg.Cloud.MaxTokens != 1024 {
		t.Fatalf("cloud=%+v", cfg.Cloud)
	}
}

func TestLoadFileEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_HOST", "http://env-host:11434")
	t.Setenv("OLLAMA_MODEL", "mistral:7b")
	t.Setenv("CLAUDE_MODEL", "claude-opus-4-20250514")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("JARVIS_MODE", "local")
	t.Setenv("CLAUDE_MAX_TOKENS", "2048")

	cfg, err := LoadFile(writeConfig(t, "local:\n  model: from-file\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Local.Host != "http://env-host:11434" {
		t.Fatalf("host=%q", cfg.Local.Host)
	}
	if cfg.Local.Model != "mistral:7b" {
		t.Fatalf("model=%q, env should win over file", cfg.Local.Model)
	}
	if cfg.Cloud.Model != "claude-opus-4-20250514" || cfg.Cloud.APIKey != "sk-env" || cfg.Cloud.MaxTokens != 2048 {
		t.Fatalf("cloud=%+v", cfg.Cloud)
	}
	if cfg.Mode != "local" {
		t.Fatalf("mode=%q", cfg.Mode)
	}
}

func TestLoadFileResolvesAPIKeyReference(t *testing.T) {
	clearEnv(t)
	t.Setenv("JARVIS_TEST_SECRET", "sk-indirect")
	cfg, err := LoadFile(writeConfig(t, "cloud:\n  api_key: ${JARVIS_TEST_SECRET}\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Cloud.APIKey != "sk-indirect" {
		t.Fatalf("api key=%q, want %q", cfg.Cloud.APIKey, "sk-indirect")
	}
}

func TestApplyOverrides(t *testing.T) {
	base := Config{
		Mode:  "auto",
		Local: LocalConfig{Host: DefaultOllamaHost, Model: DefaultLocalModel},
		Cloud: CloudConfig{Model: DefaultCloudModel},
	}

	got := base.ApplyOverrides(Overrides{Mode: "LOCAL", LocalModel: "llama3.2:3b"})
	if got.Mode != "local" || got.Local.Model != "llama3.2:3b" {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.Cloud.Model != DefaultCloudModel || got.Local.Host != DefaultOllamaHost {
		t.Fatalf("unset overrides changed values: %+v", got)
	}
	if base.Mode != "auto" || base.Local.Model != DefaultLocalModel {
		t.Fatalf("ApplyOverrides mutated the receiver: %+v", base)
	}

	got = base.ApplyOverrides(Overrides{Host: "http://other:11434", CloudModel: "claude-x"})
	if got.Local.Host != "http://other:11434" || got.Cloud.Model != "claude-x" {
		t.Fatalf("overrides not applied: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Mode:  "auto",
		Local: LocalConfig{Host: DefaultOllamaHost, Model: DefaultLocalModel},
		Cloud: CloudConfig{Model: DefaultCloudModel, MaxTokens: 4096},
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing credential is fine", func(c *Config) { c.Cloud.APIKey = "" }, false},
		{"bad mode", func(c *Config) { c.Mode = "turbo" }, true},
		{"host without scheme", func(c *Config) { c.Local.Host = "localhost:11434" }, true},
		{"ftp host", func(c *Config) { c.Local.Host = "ftp://localhost" }, true},
		{"empty local model", func(c *Config) { c.Local.Model = "" }, true},
		{"zero max tokens", func(c *Config) { c.Cloud.MaxTokens = 0 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("err=%v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	c := Config{Cloud: CloudConfig{APIKey: "sk-ant-1234567890abcd"}}
	r := c.Redacted()
	if r.Cloud.APIKey == c.Cloud.APIKey {
		t.Fatalf("api key not redacted")
	}
	if c.Cloud.APIKey != "sk-ant-1234567890abcd" {
		t.Fatalf("Redacted mutated the receiver")
	}
	if got := (Config{}).Redacted().Cloud.APIKey; got != "" {
		t.Fatalf("empty key should stay empty, got %q", got)
	}
}

func TestResolveValue(t *testing.T) {
	t.Setenv("JARVIS_RESOLVE_TEST", "value")
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  literal  ", "literal"},
		{"$JARVIS_RESOLVE_TEST", "value"},
		{"${JARVIS_RESOLVE_TEST}", "value"},
		{"$(echo hello)", "hello"},
	}
	for _, tc := range tests {
		got, err := ResolveValue(tc.in)
		if err != nil {
			t.Fatalf("ResolveValue(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ResolveValue(%q)=%q, want %q", tc.in, got, tc.want)
		}
	}
	if _, err := ResolveValue("$(exit 3)"); err == nil {
		t.Fatalf("expected error for failing command")
	}
}
