package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samsaffron/jarvis/internal/llm"
	"github.com/samsaffron/jarvis/internal/ui"
)

// Engine is the subset of *llm.Engine the dispatcher controls.
type Engine interface {
	Mode() llm.Mode
	SetMode(llm.Mode) error
	ClearHistory()
	ListModels(ctx context.Context) []string
	PullModel(ctx context.Context, model string, progress func(status string)) error
	CheckStatus(ctx context.Context) llm.Status
}

// Result tells the REPL what to do after Handle returns.
type Result int

const (
	// Forward means the line is a query for the engine.
	Forward Result = iota
	Handled
	Exit
)

// Dispatcher executes control commands against an engine.
type Dispatcher struct {
	engine     Engine
	out        io.Writer
	styles     *ui.Styles
	localModel string
}

func NewDispatcher(engine Engine, out io.Writer, styles *ui.Styles, localModel string) *Dispatcher {
	return &Dispatcher{engine: engine, out: out, styles: styles, localModel: localModel}
}

// Handle runs input if it is a command. Command failures are reported to the
// user and still count as handled.
func (d *Dispatcher) Handle(ctx context.Context, input string) Result {
	p := Parse(input)
	switch p.Kind {
	case KindQuery:
		if strings.TrimSpace(input) == "" {
			return Handled
		}
		return Forward
	case KindExit:
		fmt.Fprintln(d.out, d.styles.Muted.Render("Goodbye, sir."))
		return Exit
	case KindHelp:
		d.help()
	case KindMode:
		d.mode(p.Arg)
	case KindStatus:
		ui.WriteStatus(d.out, d.styles, d.engine.CheckStatus(ctx))
	case KindModels:
		ui.WriteModels(d.out, d.styles, d.engine.ListModels(ctx), d.localModel)
	case KindPull:
		d.pull(ctx, p.Arg)
	case KindClear:
		d.engine.ClearHistory()
		fmt.Fprintln(d.out, d.styles.FormatResult(true, "Conversation history cleared"))
	case KindUnknown:
		msg := fmt.Sprintf("Unknown command: /%s", p.Command)
		if len(p.Suggestions) > 0 {
			msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(p.Suggestions, ", "))
		}
		fmt.Fprintln(d.out, d.styles.FormatResult(false, msg))
		fmt.Fprintln(d.out, d.styles.Muted.Render("Type help for available commands."))
	}
	return Handled
}

func (d *Dispatcher) mode(arg string) {
	if arg == "" {
		m := d.engine.Mode()
		fmt.Fprintf(d.out, "Current mode: %s %s\n", d.styles.ModeBadge(m), m.Description())
		return
	}
	m, err := llm.ParseMode(arg)
	if err == nil {
		err = d.engine.SetMode(m)
	}
	if err != nil {
		fmt.Fprintln(d.out, d.styles.FormatResult(false, err.Error()))
		return
	}
	fmt.Fprintln(d.out, d.styles.FormatResult(true, "Switched to "+m.Description()))
}

func (d *Dispatcher) pull(ctx context.Context, model string) {
	if model == "" {
		fmt.Fprintln(d.out, d.styles.FormatResult(false, "usage: pull <model>"))
		return
	}
	fmt.Fprintf(d.out, "Pulling %s...\n", model)
	err := d.engine.PullModel(ctx, model, func(status string) {
		fmt.Fprintln(d.out, d.styles.Muted.Render("  "+status))
	})
	if err != nil {
		fmt.Fprintln(d.out, d.styles.FormatResult(false, err.Error()))
		return
	}
	fmt.Fprintln(d.out, d.styles.FormatResult(true, "Pulled "+model))
}

func (d *Dispatcher) help() {
	fmt.Fprintln(d.out, d.styles.Title.Render("Commands"))
	width := 0
	commands := AllCommands()
	for _, c := range commands {
		width = max(width, len(c.Usage))
	}
	for _, c := range commands {
		line := fmt.Sprintf("  %s  %s", ui.PadRight(c.Usage, width), c.Description)
		if len(c.Aliases) > 0 {
			line += d.styles.Muted.Render(" (" + strings.Join(c.Aliases, ", ") + ")")
		}
		fmt.Fprintln(d.out, line)
	}
	fmt.Fprintln(d.out, d.styles.Muted.Render("Anything else is sent to Jarvis. Prefix with / to force a command."))
}
