package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/samsaffron/jarvis/internal/llm"
)

// WriteStatus prints the backend status table shown by `jarvis status` and
// the REPL status command.
func WriteStatus(w io.Writer, s *Styles, st llm.Status) {
	rows := [][2]string{
		{"Mode", s.ModeBadge(st.Mode) + " " + st.Mode.Description()},
		{"Local (Ollama)", s.FormatAvailable(st.LocalAvailable) + detail(s, st.LocalDetail)},
		{"Cloud (Claude)", s.FormatAvailable(st.CloudAvailable) + detail(s, st.CloudDetail)},
	}
	if len(st.LocalModels) > 0 {
		rows = append(rows, [2]string{"Models", strings.Join(st.LocalModels, ", ")})
	}

	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r[0]))
	}
	fmt.Fprintln(w, s.TableHeader.Render("Jarvis status"))
	for _, r := range rows {
		fmt.Fprintf(w, "  %s  %s\n", s.Bold.Render(PadRight(r[0], width)), r[1])
	}
}

// WriteModels prints an installed-model list, marking the active one.
func WriteModels(w io.Writer, s *Styles, models []string, active string) {
	if len(models) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No local models installed (try: jarvis pull "+active+")"))
		return
	}
	for _, m := range models {
		marker := "  "
		if m == active {
			marker = s.Success.Render(EnabledIcon + " ")
		}
		fmt.Fprintf(w, "%s%s\n", marker, m)
	}
}

func detail(s *Styles, d string) string {
	if d == "" {
		return ""
	}
	return "  " + s.Muted.Render(Truncate(d, 60))
}

// PadRight pads s with spaces to the given display width.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Truncate shortens a string to the given display width with an ellipsis.
func Truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
