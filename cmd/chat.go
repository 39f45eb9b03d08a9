package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samsaffron/jarvis/internal/commands"
	"github.com/samsaffron/jarvis/internal/llm"
	"github.com/samsaffron/jarvis/internal/signal"
	"github.com/samsaffron/jarvis/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session. This is also what running jarvis
with no subcommand does.

Commands typed at the prompt:
  mode local|cloud|auto  - Switch routing mode
  status                 - Show backend availability
  models                 - List installed local models
  pull <model>           - Download a local model
  clear                  - Clear conversation history
  help                   - Show help
  exit                   - Quit

Ctrl+C while an answer is streaming cancels it; Ctrl+C at the prompt exits.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.TerminateContext()
	defer stop()

	out := cmd.OutOrStdout()
	styles := ui.NewStyles(out)

	var indicator func() llm.Indicator
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		indicator = func() llm.Indicator { return ui.NewSpinner(out, "Thinking...", styles) }
	}

	sess, err := openSession(indicator)
	if err != nil {
		return err
	}
	defer sess.Close()

	r := &repl{
		engine:     sess.engine,
		dispatcher: commands.NewDispatcher(sess.engine, out, styles, sess.cfg.Local.Model),
		out:        out,
		styles:     styles,
	}
	r.banner(ctx)
	return r.run(ctx, cmd.InOrStdin())
}

// repl is the line-oriented chat loop.
type repl struct {
	engine     *llm.Engine
	dispatcher *commands.Dispatcher
	out        io.Writer
	styles     *ui.Styles
}

func (r *repl) banner(ctx context.Context) {
	st := r.engine.CheckStatus(ctx)
	fmt.Fprintln(r.out, r.styles.Title.Render("J.A.R.V.I.S.")+" "+r.styles.Muted.Render("hybrid local/cloud assistant"))
	ui.WriteStatus(r.out, r.styles, st)
	if !st.LocalAvailable && !st.CloudAvailable {
		fmt.Fprintln(r.out, r.styles.FormatResult(false, "No backend is available. Start Ollama or set ANTHROPIC_API_KEY."))
	}
	fmt.Fprintln(r.out, r.styles.Muted.Render("Type help for commands, exit to quit."))
	fmt.Fprintln(r.out)
}

func (r *repl) prompt() {
	fmt.Fprintf(r.out, "%s %s ", r.styles.ModeBadge(r.engine.Mode()), r.styles.Prompt.Render("You:"))
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := readLines(in)
	interrupts, stopInterrupts := signal.Interrupts()
	defer stopInterrupts()

	for {
		r.prompt()
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case <-interrupts:
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(r.out)
				return nil
			}
			switch r.dispatcher.Handle(ctx, line) {
			case commands.Exit:
				return nil
			case commands.Handled:
				continue
			}
			r.ask(ctx, line, interrupts)
		}
	}
}

// ask streams one answer. An interrupt while streaming cancels only this
// query; the partial answer is discarded from history.
func (r *repl) ask(ctx context.Context, line string, interrupts <-chan os.Signal) {
	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, decision, err := r.engine.Ask(queryCtx, line)
	if err != nil {
		if errors.Is(err, llm.ErrNoBackendAvailable) {
			fmt.Fprintln(r.out, r.styles.FormatResult(false, "No backend available: start Ollama or set ANTHROPIC_API_KEY."))
			return
		}
		fmt.Fprintln(r.out, r.styles.FormatResult(false, err.Error()))
		return
	}
	defer stream.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-interrupts:
			cancel()
		case <-done:
		}
	}()

	// The spinner owns the line until the first fragment arrives.
	header := false
	writeHeader := func() {
		if !header {
			header = true
			fmt.Fprintf(r.out, "%s %s ", r.styles.BackendBadge(decision), r.styles.Prompt.Render("Jarvis:"))
		}
	}
	for {
		f, err := stream.Recv()
		if err == io.EOF {
			writeHeader()
			fmt.Fprint(r.out, "\n\n")
			return
		}
		if err != nil {
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, r.styles.Muted.Render("[interrupted]"))
			return
		}
		writeHeader()
		fmt.Fprint(r.out, r.styles.Fragment(f))
	}
}

// readLines feeds input lines into a channel that is closed at EOF.
func readLines(in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			ch <- scanner.Text()
		}
	}()
	return ch
}
