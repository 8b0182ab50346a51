// Package output renders command results for terminals, markdown consumers
// and machines.
package output

import "strings"

// OutputMode selects how a Renderer formats results.
type OutputMode string

// Output modes.
const (
	ModeAuto     OutputMode = "auto"     // text on a TTY, markdown otherwise
	ModeText     OutputMode = "text"     // styled text
	ModeMarkdown OutputMode = "markdown" // plain markdown, safe for pipes and agents
	ModeJSON     OutputMode = "json"     // one JSON document per command
)

// Mode parses an output mode name. Unknown names fall back to ModeAuto.
func Mode(s string) OutputMode {
	switch m := OutputMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeText, ModeMarkdown, ModeJSON:
		return m
	case "md":
		return ModeMarkdown
	default:
		return ModeAuto
	}
}
