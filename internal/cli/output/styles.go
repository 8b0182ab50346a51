package output

import "github.com/charmbracelet/lipgloss"

// Theme colors.
var (
	PrimaryColor = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#A79BFF"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#4ECDC4"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#FFE66D"}
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF6B6B"}
	SubtleColor  = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

// Status icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	PendingIcon = "•"
)

// Styles holds the lipgloss styles a renderer uses.
type Styles struct {
	Header    lipgloss.Style
	Subheader lipgloss.Style
	Bold      lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Key       lipgloss.Style
}

// NewStyles builds the styles for a lipgloss renderer. A renderer with the
// ASCII profile produces plain text.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:    r.NewStyle().Bold(true).Foreground(PrimaryColor),
		Subheader: r.NewStyle().Bold(true),
		Bold:      r.NewStyle().Bold(true),
		Success:   r.NewStyle().Foreground(SuccessColor),
		Warning:   r.NewStyle().Foreground(WarningColor),
		Error:     r.NewStyle().Foreground(ErrorColor),
		Muted:     r.NewStyle().Foreground(SubtleColor),
		Key:       r.NewStyle().Foreground(SubtleColor).Bold(true),
	}
}
