package cmd

import (
	"fmt"

	"github.com/samsaffron/jarvis/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration as YAML, after the config file,
environment variables and command-line flags have been applied.
The API key is redacted.

Config file: ~/.config/jarvis/config.yaml (optional)

Environment:
  OLLAMA_HOST, OLLAMA_MODEL, CLAUDE_MODEL, ANTHROPIC_API_KEY,
  ANTHROPIC_BASE_URL, CLAUDE_MAX_TOKENS, JARVIS_MODE, JARVIS_LOG_FILE`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := renderConfig(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func renderConfig(cfg config.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
