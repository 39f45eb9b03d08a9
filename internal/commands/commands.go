// Package commands recognizes the control phrases typed at the chat prompt.
package commands

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Kind identifies what a line of input asks for.
type Kind int

const (
	KindQuery Kind = iota // not a command; forward to the engine
	KindMode
	KindStatus
	KindModels
	KindPull
	KindClear
	KindHelp
	KindExit
	KindUnknown // slash-prefixed but unrecognized
)

// Command represents a control phrase
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Kind        Kind
	// TakesArg commands consume the rest of the line as an argument.
	TakesArg bool
}

// AllCommands returns all available control commands
func AllCommands() []Command {
	return []Command{
		{
			Name:        "mode",
			Description: "Show or switch routing mode",
			Usage:       "mode [local|cloud|auto]",
			Kind:        KindMode,
			TakesArg:    true,
		},
		{
			Name:        "status",
			Description: "Show backend availability",
			Usage:       "status",
			Kind:        KindStatus,
		},
		{
			Name:        "models",
			Description: "List installed local models",
			Usage:       "models",
			Kind:        KindModels,
		},
		{
			Name:        "pull",
			Description: "Download a local model",
			Usage:       "pull <model>",
			Kind:        KindPull,
			TakesArg:    true,
		},
		{
			Name:        "clear",
			Aliases:     []string{"clear history"},
			Description: "Clear conversation history",
			Usage:       "clear",
			Kind:        KindClear,
		},
		{
			Name:        "help",
			Aliases:     []string{"?"},
			Description: "Show available commands",
			Usage:       "help",
			Kind:        KindHelp,
		},
		{
			Name:        "exit",
			Aliases:     []string{"quit", "bye", "goodbye", "shutdown"},
			Description: "Exit Jarvis",
			Usage:       "exit",
			Kind:        KindExit,
		},
	}
}

// Parsed is the result of classifying one input line.
type Parsed struct {
	Kind    Kind
	Command string
	Arg     string
	// Suggestions holds close command names for KindUnknown.
	Suggestions []string
}

// Parse classifies a line of input. Bare words are only treated as commands
// when the whole line matches, so "help me plan a trip" stays a query. A
// leading slash forces command interpretation.
func Parse(input string) Parsed {
	line := strings.TrimSpace(input)
	slashed := strings.HasPrefix(line, "/")
	line = strings.TrimPrefix(line, "/")
	lower := strings.ToLower(line)

	for _, cmd := range AllCommands() {
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if lower == name {
				return Parsed{Kind: cmd.Kind, Command: cmd.Name}
			}
			if cmd.TakesArg && strings.HasPrefix(lower, name+" ") {
				arg := strings.TrimSpace(line[len(name):])
				if !slashed && !plausibleArg(cmd.Kind, arg) {
					// "mode of transport" is a question, not a command.
					continue
				}
				return Parsed{Kind: cmd.Kind, Command: cmd.Name, Arg: arg}
			}
		}
	}

	if slashed {
		query := ""
		if fields := strings.Fields(lower); len(fields) > 0 {
			query = fields[0]
		}
		return Parsed{Kind: KindUnknown, Command: query, Suggestions: Suggest(query)}
	}
	return Parsed{Kind: KindQuery, Arg: strings.TrimSpace(input)}
}

// plausibleArg reports whether an unslashed line looks like a command rather
// than prose that happens to start with a command word.
func plausibleArg(kind Kind, arg string) bool {
	switch kind {
	case KindMode:
		switch strings.ToLower(arg) {
		case "local", "cloud", "auto":
			return true
		}
		return false
	case KindPull:
		return !strings.ContainsAny(arg, " \t")
	}
	return true
}

// CommandSource implements fuzzy.Source for command searching
type CommandSource []Command

func (c CommandSource) String(i int) string {
	return c[i].Name
}

func (c CommandSource) Len() int {
	return len(c)
}

// Suggest returns command names close to query, best match first.
func Suggest(query string) []string {
	if query == "" {
		return nil
	}
	commands := AllCommands()
	var out []string
	for _, m := range fuzzy.FindFrom(query, CommandSource(commands)) {
		out = append(out, commands[m.Index].Name)
	}
	if len(out) == 0 {
		for _, cmd := range commands {
			if strings.HasPrefix(cmd.Name, query) || strings.HasPrefix(query, cmd.Name) {
				out = append(out, cmd.Name)
			}
		}
	}
	return out
}
