package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Options using mapstructure.
type Params struct {
	// Threads caps the worker threads DuckDB may use (0 keeps the default).
	Threads int `mapstructure:"threads"`

	// MemoryLimit caps DuckDB memory, e.g. "1GB".
	MemoryLimit string `mapstructure:"memory_limit"`

	// TimeZone sets the session time zone used for TIMESTAMPTZ rendering.
	TimeZone string `mapstructure:"timezone"`
}

// ParseParams decodes adapter options into Params. Unknown keys are rejected.
func ParseParams(options map[string]string) (*Params, error) {
	params := &Params{}
	if len(options) == 0 {
		return params, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           params,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(options); err != nil {
		return nil, fmt.Errorf("invalid duckdb options: %w", err)
	}
	return params, nil
}

// Statements returns the SET statements applying the params.
func (p *Params) Statements() []string {
	var stmts []string
	if p.Threads > 0 {
		stmts = append(stmts, fmt.Sprintf("SET threads = %d", p.Threads))
	}
	if p.MemoryLimit != "" {
		stmts = append(stmts, fmt.Sprintf("SET memory_limit = '%s'", escape(p.MemoryLimit)))
	}
	if p.TimeZone != "" {
		stmts = append(stmts, fmt.Sprintf("SET TimeZone = '%s'", escape(p.TimeZone)))
	}
	return stmts
}

func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
