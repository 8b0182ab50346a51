package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// WriteCSV exports t to path with a header row, creating parent
// directories. Nulls become empty cells and midnight timestamps are
// written as plain dates.
func WriteCSV(t *table.Table, path string) error {
	const op = "write csv"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return core.Wrap(core.ErrWrite, op, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return core.Wrap(core.ErrWrite, op, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		_ = f.Close()
		return core.Wrap(core.ErrWrite, op, err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, v := range row {
			record[j] = table.Format(v)
		}
		if err := cw.Write(record); err != nil {
			_ = f.Close()
			return core.Wrap(core.ErrWrite, op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return core.Wrap(core.ErrWrite, op, err)
	}
	if err := f.Close(); err != nil {
		return core.Wrap(core.ErrWrite, op, fmt.Errorf("%s: %w", path, err))
	}
	return nil
}
