package persist

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/leapstack-labs/leapflow/internal/loader"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// storedTimeLayouts are the text forms drivers use for timestamps.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadTable reads every row of the named table. Columns declared with a
// date or time type come back as UTC time values even when the store keeps
// them as text.
func ReadTable(ctx context.Context, a core.Adapter, name string) (*table.Table, error) {
	const op = "read table"

	meta, err := a.GetTableMetadata(ctx, name)
	if err != nil {
		return nil, err
	}

	rows, err := a.Query(ctx, "SELECT * FROM "+adapter.QuoteIdent(name))
	if err != nil {
		return nil, core.Wrap(core.ErrQuery, op, err)
	}
	t, err := loader.FromRows(name, rows)
	if err != nil {
		return nil, err
	}

	for j, c := range t.Columns {
		typ := strings.ToUpper(meta.ColumnType(c))
		if !strings.Contains(typ, "DATE") && !strings.Contains(typ, "TIME") {
			continue
		}
		for i, row := range t.Rows {
			s, ok := row[j].(string)
			if !ok {
				continue
			}
			d, ok := parseStoredTime(s)
			if !ok {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %q is not a timestamp", name, i+1, c, s)
			}
			row[j] = d
		}
	}
	return t, nil
}

func parseStoredTime(s string) (time.Time, bool) {
	for _, l := range storedTimeLayouts {
		if d, err := time.Parse(l, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}

// ApplySchema runs an external DDL script against the store.
func ApplySchema(ctx context.Context, a core.Adapter, path string) error {
	const op = "apply schema"

	script, err := os.ReadFile(path)
	if err != nil {
		return core.Wrap(core.ErrLoad, op, err)
	}
	if err := a.Exec(ctx, string(script)); err != nil {
		return core.Errorf(core.ErrSchema, op, "%s: %w", path, err)
	}
	return nil
}
