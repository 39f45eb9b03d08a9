package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/samsaffron/jarvis/internal/ui"
	"github.com/spf13/cobra"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the Ollama host",
	Long: `List models installed on the Ollama host. The active local model is marked.

Examples:
  jarvis models
  jarvis models --host http://gpu-box:11434
  jarvis models --json`,
	Args: cobra.NoArgs,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
}

// modelsOutput is the --json shape.
type modelsOutput struct {
	Host   string   `json:"host"`
	Active string   `json:"active"`
	Models []string `json:"models"`
}

func runModels(cmd *cobra.Command, args []string) error {
	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	st := sess.engine.CheckStatus(context.Background())
	if !st.LocalAvailable {
		return exitcode.Unavailable(fmt.Sprintf("Ollama is not reachable at %s: %s", sess.cfg.Local.Host, st.LocalDetail))
	}

	out := cmd.OutOrStdout()
	if modelsJSON {
		models := st.LocalModels
		if models == nil {
			models = []string{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(modelsOutput{Host: sess.cfg.Local.Host, Active: sess.cfg.Local.Model, Models: models})
	}
	ui.WriteModels(out, ui.NewStyles(out), st.LocalModels, sess.cfg.Local.Model)
	return nil
}
