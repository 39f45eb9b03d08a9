package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/samsaffron/jarvis/internal/llm"
)

// Color palette
var (
	Green  = lipgloss.Color("10") // available, success
	Red    = lipgloss.Color("9")  // errors, unavailable
	Grey   = lipgloss.Color("8")  // muted text, notices
	Blue   = lipgloss.Color("4")  // local badge, borders
	Purple = lipgloss.Color("5")  // cloud badge
	Yellow = lipgloss.Color("11") // auto badge
	White  = lipgloss.Color("15") // header text
)

// Status indicators
const (
	EnabledIcon  = "●"
	DisabledIcon = "○"
	SuccessIcon  = "✓"
	FailIcon     = "✗"
)

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Prompt  lipgloss.Style

	LocalBadge lipgloss.Style
	CloudBadge lipgloss.Style
	AutoBadge  lipgloss.Style

	TableHeader lipgloss.Style
	TableBorder lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output io.Writer) *Styles {
	r := lipgloss.NewRenderer(output)
	badge := r.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("0"))

	return &Styles{
		Title:   r.NewStyle().Bold(true).Foreground(White),
		Success: r.NewStyle().Foreground(Green),
		Error:   r.NewStyle().Foreground(Red),
		Muted:   r.NewStyle().Foreground(Grey).Italic(true),
		Bold:    r.NewStyle().Bold(true),
		Prompt:  r.NewStyle().Bold(true).Foreground(Blue),

		LocalBadge: badge.Background(Blue),
		CloudBadge: badge.Background(Purple),
		AutoBadge:  badge.Background(Yellow),

		TableHeader: r.NewStyle().Bold(true).Foreground(White),
		TableBorder: r.NewStyle().Foreground(Blue),
	}
}

// ModeBadge renders the current routing mode as a colored label.
func (s *Styles) ModeBadge(m llm.Mode) string {
	label := "AUTO"
	style := s.AutoBadge
	switch m {
	case llm.ModeLocal:
		label, style = "LOCAL", s.LocalBadge
	case llm.ModeCloud:
		label, style = "CLOUD", s.CloudBadge
	}
	return style.Render(label)
}

// BackendBadge renders the backend that is answering a query.
func (s *Styles) BackendBadge(d llm.RoutingDecision) string {
	if d.UseCloud {
		return s.CloudBadge.Render("CLOUD")
	}
	return s.LocalBadge.Render("LOCAL")
}

// Fragment renders one streamed fragment: content as-is, notices muted on
// their own line, error markers in red.
func (s *Styles) Fragment(f llm.Fragment) string {
	switch f.Kind {
	case llm.FragmentNotice:
		return s.Muted.Render("["+f.Text+"]") + "\n"
	case llm.FragmentError:
		return s.Error.Render("[error: " + f.Text + "]")
	}
	return f.Text
}

// FormatAvailable returns a styled online/offline indicator
func (s *Styles) FormatAvailable(available bool) string {
	if available {
		return s.Success.Render(EnabledIcon + " online")
	}
	return s.Error.Render(DisabledIcon + " offline")
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}
