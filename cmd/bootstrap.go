package cmd

import (
	"fmt"
	"log/slog"

	"github.com/samsaffron/jarvis/internal/config"
	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/samsaffron/jarvis/internal/llm"
	"github.com/samsaffron/jarvis/internal/logging"
)

// loadConfig reads file and environment configuration, then applies the
// global command-line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	effective := cfg.ApplyOverrides(config.Overrides{
		Mode:       flagMode,
		Host:       flagHost,
		LocalModel: flagLocalModel,
		CloudModel: flagCloudModel,
	})
	if err := effective.Validate(); err != nil {
		return config.Config{}, exitcode.Invalid(err.Error())
	}
	return effective, nil
}

func newOllamaClient(cfg config.Config) *llm.OllamaClient {
	return llm.NewOllamaClient(llm.OllamaConfig{
		Host:         cfg.Local.Host,
		ProbeTimeout: cfg.Local.ProbeTimeout,
		ChatTimeout:  cfg.Local.ChatTimeout,
	})
}

func newAnthropicClient(cfg config.Config) *llm.AnthropicClient {
	return llm.NewAnthropicClient(llm.AnthropicConfig{
		APIKey:      cfg.Cloud.APIKey,
		BaseURL:     cfg.Cloud.BaseURL,
		MaxTokens:   cfg.Cloud.MaxTokens,
		ChatTimeout: cfg.Cloud.ChatTimeout,
	})
}

// newEngine builds the hybrid engine from the effective config. indicator may
// be nil when the caller draws its own progress display.
func newEngine(cfg config.Config, log *slog.Logger, indicator func() llm.Indicator) *llm.Engine {
	mode, err := llm.ParseMode(cfg.Mode)
	if err != nil {
		mode = llm.ModeAuto
	}
	return llm.NewEngine(llm.EngineConfig{
		Local:        newOllamaClient(cfg),
		Cloud:        newAnthropicClient(cfg),
		LocalModel:   cfg.Local.Model,
		CloudModel:   cfg.Cloud.Model,
		LocalSystem:  cfg.Local.SystemPrompt,
		CloudSystem:  cfg.Cloud.SystemPrompt,
		Mode:         mode,
		Logger:       log,
		NewIndicator: indicator,
	})
}

// session bundles what every engine-backed command needs.
type session struct {
	cfg    config.Config
	logger *logging.Logger
	engine *llm.Engine
}

func openSession(indicator func() llm.Indicator) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.FromEnv(flagDebug)
	logger.WithComponent("config").Debug("loaded config",
		"mode", cfg.Mode, "host", cfg.Local.Host, "local_model", cfg.Local.Model,
		"cloud_model", cfg.Cloud.Model, "cloud_configured", cfg.Cloud.APIKey != "")
	return &session{
		cfg:    cfg,
		logger: logger,
		engine: newEngine(cfg, logger.WithComponent("engine"), indicator),
	}, nil
}

func (s *session) Close() error {
	return s.logger.Close()
}
