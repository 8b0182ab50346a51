package persist

import (
	"fmt"
	"strings"
)

// Policy selects how a table is written to its destination.
type Policy string

// Write policies.
const (
	// Replace drops the destination and recreates it from the table.
	Replace Policy = "replace"
	// Append adds rows to an existing destination with compatible columns.
	Append Policy = "append"
)

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case Replace, Append:
		return p, nil
	default:
		return "", fmt.Errorf("unknown write policy %q (want replace or append)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p), nil
}
