package output

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	isTTY  bool
	mode   OutputMode
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Styling is only applied to text output on a TTY.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{out: out, errOut: errOut, isTTY: isTTY, mode: mode}

	profile := termenv.Ascii
	if isTTY && r.EffectiveMode() == ModeText && !termenv.EnvNoColor() {
		profile = termenv.ANSI256
	}
	lg := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	lg.SetColorProfile(profile)
	r.styles = NewStyles(lg)
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the diagnostic output writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the renderer's styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Mode returns the configured mode.
func (r *Renderer) Mode() OutputMode { return r.mode }

// EffectiveMode resolves ModeAuto: text on a TTY, markdown otherwise.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() != ModeText {
		r.Println(FormatHeader(level, text))
		r.Println()
		return
	}
	style := r.styles.Subheader
	if level <= 1 {
		style = r.styles.Header
	}
	r.Println(style.Render(text))
}

// KeyValue writes a labelled value.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() != ModeText {
		r.Println(FormatKeyValue(key, value))
		return
	}
	r.Printf("%s %s\n", r.styles.Key.Render(key+":"), value)
}

// StatusLine writes one line describing an item's status. Status is one of
// success, failed, warning or anything else for pending.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon, style := PendingIcon, r.styles.Muted
	switch status {
	case "success", "completed", "passed":
		icon, style = SuccessIcon, r.styles.Success
	case "failed", "error":
		icon, style = ErrorIcon, r.styles.Error
	case "warning":
		icon, style = WarningIcon, r.styles.Warning
	}

	if r.EffectiveMode() != ModeText {
		line := fmt.Sprintf("- %s **%s** %s", icon, name, status)
		if detail != "" {
			line += " (" + detail + ")"
		}
		r.Println(line)
		return
	}

	line := fmt.Sprintf("%s %s", style.Render(icon), name)
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render(SuccessIcon + " " + msg))
}

// Warning writes a warning to the diagnostic writer.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render(WarningIcon+" "+msg))
}

// Error writes an error to the diagnostic writer.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(ErrorIcon+" "+msg))
}

// Muted writes de-emphasized text.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table writes a record table. Text mode draws box borders, markdown mode
// writes a pipe table. Empty tables print a row count only.
func (r *Renderer) Table(t *table.Table) {
	if t.Len() == 0 {
		r.Muted("(0 rows)")
		return
	}

	tw := pretty.NewWriter()
	tw.SetOutputMirror(r.out)

	header := make(pretty.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		cells := make(pretty.Row, len(row))
		for i, v := range row {
			cells[i] = FormatCell(v)
		}
		tw.AppendRow(cells)
	}

	if r.EffectiveMode() == ModeText {
		tw.SetStyle(pretty.StyleLight)
		tw.Style().Format.Header = text.FormatDefault
		tw.Render()
		r.Muted(fmt.Sprintf("(%s rows)", FormatCount(int64(t.Len()))))
		return
	}
	tw.RenderMarkdown()
	r.Println()
}

// Records converts a table to JSON-friendly records. Non-finite floats
// become null.
func Records(t *table.Table) []map[string]any {
	recs := t.Records()
	for _, rec := range recs {
		for k, v := range rec {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				rec[k] = nil
			}
		}
	}
	return recs
}
