package cmd

import (
	"context"

	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/samsaffron/jarvis/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local and cloud backend availability",
	Long: `Probe the Ollama host and check the Claude credential.

Exits with code 4 when neither backend is available.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	st := sess.engine.CheckStatus(context.Background())
	ui.WriteStatus(out, ui.NewStyles(out), st)
	if !st.LocalAvailable && !st.CloudAvailable {
		return exitcode.Unavailable("no backend available")
	}
	return nil
}
