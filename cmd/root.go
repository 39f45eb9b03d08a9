package cmd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "Routing mode: local, cloud or auto")
	rootCmd.PersistentFlags().StringVar(&flagLocalModel, "local-model", "", "Ollama model to use (overrides OLLAMA_MODEL)")
	rootCmd.PersistentFlags().StringVar(&flagCloudModel, "cloud-model", "", "Claude model to use (overrides CLAUDE_MODEL)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Ollama host URL (overrides OLLAMA_HOST)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write debug logs to stderr or $JARVIS_LOG_FILE")
	rootCmd.PersistentFlags().StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&memProfile, "memprofile", "", "Write memory profile to file")

	if err := rootCmd.RegisterFlagCompletionFunc("mode", ModeFlagCompletion); err != nil {
		panic(fmt.Sprintf("failed to register mode completion: %v", err))
	}
	if err := rootCmd.RegisterFlagCompletionFunc("local-model", LocalModelFlagCompletion); err != nil {
		panic(fmt.Sprintf("failed to register model completion: %v", err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "jarvis",
	Short: "Hybrid local/cloud AI assistant",
	Long: `Jarvis routes each question to a local Ollama model or to Claude.

Private and creative requests stay on your machine; heavy analysis goes to
the cloud. If the chosen backend is down, Jarvis falls back to the other one
and tells you so.

Examples:
  jarvis                                  # interactive chat
  jarvis ask "summarize this document"    # one-shot answer
  jarvis ask --mode local "keep it private"
  jarvis status                           # backend availability
  jarvis pull llama3.2:3b                 # download a local model`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	RunE:              runChat,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return startProfiling()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return stopProfiling()
	},
}

var (
	flagMode       string
	flagLocalModel string
	flagCloudModel string
	flagHost       string
	flagDebug      bool
)

var cpuProfile string
var memProfile string
var cpuProfileFile *os.File

func startProfiling() error {
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return err
		}
		cpuProfileFile = f
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return err
		}
	}
	return nil
}

func stopProfiling() error {
	if cpuProfileFile != nil {
		pprof.StopCPUProfile()
		cpuProfileFile.Close()
	}
	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return err
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return err
		}
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr exitcode.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(exitcode.Error)
	}
}
