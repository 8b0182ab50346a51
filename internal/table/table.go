// Package table provides the in-memory record table every pipeline stage
// consumes and produces.
//
// A table is an ordered sequence of rows aligned with an ordered column
// list. Cells are nil, int64, float64, string or time.Time; stages never
// mutate their input and always return a new table.
package table

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Table is a named, ordered record table.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New creates an empty table with the given columns.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: slices.Clone(columns)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of col, or -1 when absent.
func (t *Table) Index(col string) int {
	return slices.Index(t.Columns, col)
}

// Has reports whether the table has the column.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Require returns a schema error naming the first absent column.
func (t *Table) Require(op string, cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return core.Errorf(core.ErrSchema, op, "table %q has no column %q", t.Name, c)
		}
	}
	return nil
}

// Indexes resolves several columns at once. Callers must Require them first.
func (t *Table) Indexes(cols ...string) []int {
	idx := make([]int, len(cols))
	for i, c := range cols {
		idx[i] = t.Index(c)
	}
	return idx
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(values ...any) {
	if len(values) != len(t.Columns) {
		panic(fmt.Sprintf("table %s: row has %d values, want %d", t.Name, len(values), len(t.Columns)))
	}
	t.Rows = append(t.Rows, values)
}

// Get returns the cell at row i for col, or nil when the column is absent.
func (t *Table) Get(i int, col string) any {
	j := t.Index(col)
	if j < 0 {
		return nil
	}
	return t.Rows[i][j]
}

// Column returns a copy of all values of col.
func (t *Table) Column(col string) []any {
	j := t.Index(col)
	if j < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// Clone returns a deep copy of the table structure. Cell values are
// immutable scalars so they are shared.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// WithName returns a shallow copy carrying a different name.
func (t *Table) WithName(name string) *Table {
	out := *t
	out.Name = name
	return &out
}

// Records returns the rows as column name to value maps.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.Rows))
	for i, row := range t.Rows {
		rec := make(map[string]any, len(t.Columns))
		for j, c := range t.Columns {
			rec[c] = row[j]
		}
		out[i] = rec
	}
	return out
}

// CountNull returns how many cells of col are nil.
func (t *Table) CountNull(col string) int {
	j := t.Index(col)
	if j < 0 {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if row[j] == nil {
			n++
		}
	}
	return n
}

// Kinds infers one value kind per column from the first non-null cell.
// Columns that mix ints and floats report KindFloat; all-null columns
// report KindNull.
func (t *Table) Kinds() []core.ValueKind {
	kinds := make([]core.ValueKind, len(t.Columns))
	for j := range t.Columns {
		for _, row := range t.Rows {
			k := core.KindOfValue(row[j])
			if k == core.KindNull {
				continue
			}
			if kinds[j] == core.KindNull || (kinds[j] == core.KindInt && k == core.KindFloat) {
				kinds[j] = k
			}
		}
	}
	return kinds
}
