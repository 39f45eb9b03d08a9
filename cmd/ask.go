package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/jarvis/internal/exitcode"
	"github.com/samsaffron/jarvis/internal/llm"
	"github.com/samsaffron/jarvis/internal/signal"
	"github.com/samsaffron/jarvis/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var askText bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the answer",
	Long: `Ask Jarvis a single question and stream the answer.

The question is routed like any chat message: private or creative requests
go to the local model, analysis and research go to Claude.

Examples:
  jarvis ask "What is the capital of France?"
  jarvis ask "analyze the tradeoffs of event sourcing"
  jarvis ask --mode local "write me a short fantasy story"
  jarvis ask "List 5 programming languages" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Output plain text instead of rendered markdown")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	ctx, stop := signal.NotifyContext()
	defer stop()

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	useGlamour := !askText && isTTY

	// The bubbletea view draws its own spinner; plain mode uses one on stderr.
	var indicator func() llm.Indicator
	if !useGlamour && term.IsTerminal(int(os.Stderr.Fd())) {
		errStyles := ui.NewStyles(os.Stderr)
		indicator = func() llm.Indicator { return ui.NewSpinner(os.Stderr, "Thinking...", errStyles) }
	}

	sess, err := openSession(indicator)
	if err != nil {
		return err
	}
	defer sess.Close()

	if useGlamour {
		err = askWithBubbleTea(ctx, sess.engine, question)
	} else {
		err = askOnce(ctx, sess.engine, cmd.OutOrStdout(), question)
	}
	if ctx.Err() != nil {
		return exitcode.Cancel()
	}
	return err
}

// askOnce sends one question and streams the answer as plain text.
func askOnce(ctx context.Context, engine *llm.Engine, w io.Writer, question string) error {
	stream, err := dispatch(ctx, engine, question)
	if err != nil {
		return err
	}
	defer stream.Close()
	return streamPlainText(w, stream, ui.NewStyles(w))
}

func askWithBubbleTea(ctx context.Context, engine *llm.Engine, question string) error {
	stream, err := dispatch(ctx, engine, question)
	if err != nil {
		return err
	}
	defer stream.Close()
	return streamWithBubbleTea(stream, ui.NewStyles(os.Stdout))
}

func dispatch(ctx context.Context, engine *llm.Engine, question string) (llm.Stream, error) {
	stream, _, err := engine.Ask(ctx, question)
	if errors.Is(err, llm.ErrNoBackendAvailable) {
		return nil, exitcode.Unavailable(err.Error())
	}
	return stream, err
}

// streamPlainText streams fragments directly without formatting
func streamPlainText(w io.Writer, stream llm.Stream, styles *ui.Styles) error {
	for {
		f, err := stream.Recv()
		if err == io.EOF {
			fmt.Fprintln(w)
			return nil
		}
		if err != nil {
			fmt.Fprintln(w)
			return err
		}
		fmt.Fprint(w, styles.Fragment(f))
	}
}

// askModel is the bubbletea model for streaming with glamour
type askModel struct {
	spinner   spinner.Model
	styles    *ui.Styles
	stream    llm.Stream
	notices   []string
	content   *strings.Builder
	errors    []string
	width     int
	done      bool
	cancelled bool
	finalView string
}

// fragmentMsg carries one streamed fragment
type fragmentMsg llm.Fragment

// streamDoneMsg signals the stream ended; err is nil on normal completion.
type streamDoneMsg struct{ err error }

func newAskModel(stream llm.Stream, styles *ui.Styles) askModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Prompt
	return askModel{
		spinner: s,
		styles:  styles,
		stream:  stream,
		content: &strings.Builder{},
	}
}

func (m askModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForFragment(m.stream))
}

// waitForFragment reads the next fragment and delivers it as a message
func waitForFragment(stream llm.Stream) tea.Cmd {
	return func() tea.Msg {
		f, err := stream.Recv()
		if err == io.EOF {
			return streamDoneMsg{}
		}
		if err != nil {
			return streamDoneMsg{err: err}
		}
		return fragmentMsg(f)
	}
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.cancelled = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fragmentMsg:
		f := llm.Fragment(msg)
		switch f.Kind {
		case llm.FragmentNotice:
			m.notices = append(m.notices, m.styles.Fragment(f))
		case llm.FragmentError:
			m.errors = append(m.errors, m.styles.Fragment(f))
		default:
			m.content.WriteString(f.Text)
		}
		return m, waitForFragment(m.stream)

	case streamDoneMsg:
		m.done = true
		m.cancelled = msg.err != nil
		m.finalView = m.render() + "\n"
		return m, tea.Quit
	}

	return m, nil
}

func (m askModel) render() string {
	var b strings.Builder
	for _, n := range m.notices {
		b.WriteString(n)
	}
	if m.content.Len() > 0 {
		b.WriteString(ui.RenderMarkdown(m.content.String(), m.width))
	}
	for _, e := range m.errors {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteString("\n")
		}
		b.WriteString(e)
	}
	return b.String()
}

func (m askModel) View() string {
	if m.done {
		return m.finalView
	}
	if m.content.Len() == 0 && len(m.errors) == 0 {
		return strings.Join(m.notices, "") + m.spinner.View() + " Thinking..."
	}
	return m.render()
}

// streamWithBubbleTea uses bubbletea for proper terminal handling
func streamWithBubbleTea(stream llm.Stream, styles *ui.Styles) error {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return streamPlainText(os.Stdout, stream, styles)
	}
	defer tty.Close()

	p := tea.NewProgram(newAskModel(stream, styles), tea.WithInput(tty), tea.WithOutput(os.Stdout))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(askModel); ok && m.cancelled {
		return exitcode.Cancel()
	}
	return nil
}
