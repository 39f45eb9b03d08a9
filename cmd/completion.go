package cmd

import (
	"context"
	"strings"

	"github.com/samsaffron/jarvis/internal/llm"
	"github.com/spf13/cobra"
)

// ModeFlagCompletion handles --mode flag completion
func ModeFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, m := range []llm.Mode{llm.ModeAuto, llm.ModeLocal, llm.ModeCloud} {
		if strings.HasPrefix(string(m), toComplete) {
			out = append(out, string(m)+"\t"+m.Description())
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// LocalModelFlagCompletion completes --local-model and pull arguments from the
// models installed on the Ollama host. An unreachable host yields no completions.
func LocalModelFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	client := newOllamaClient(cfg)
	if !client.Probe(context.Background()).Available {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, m := range client.Models() {
		if strings.HasPrefix(m, toComplete) {
			out = append(out, m)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
