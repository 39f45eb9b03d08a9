package cmd

import (
	"fmt"

	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/samsaffron/jarvis/internal/signal"
	"github.com/samsaffron/jarvis/internal/ui"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model onto the Ollama host",
	Long: `Download a model onto the Ollama host, printing progress as it goes.

Examples:
  jarvis pull dolphin-llama3:8b
  jarvis pull llama3.2:3b --host http://gpu-box:11434`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: LocalModelFlagCompletion,
	RunE:              runPull,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext()
	defer stop()

	sess, err := openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	styles := ui.NewStyles(out)
	model := args[0]

	fmt.Fprintf(out, "Pulling %s from %s\n", model, sess.cfg.Local.Host)
	err = sess.engine.PullModel(ctx, model, func(status string) {
		fmt.Fprintln(out, styles.Muted.Render("  "+status))
	})
	if ctx.Err() != nil {
		return exitcode.Cancel()
	}
	if err != nil {
		fmt.Fprintln(out, styles.FormatResult(false, err.Error()))
		return fmt.Errorf("failed to pull %s: %w", model, err)
	}
	fmt.Fprintln(out, styles.FormatResult(true, "Pulled "+model))
	return nil
}
