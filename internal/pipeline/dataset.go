package pipeline

import (
	"slices"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Dataset is an ordered, immutable set of named tables handed from one
// stage to the next. With returns a new Dataset; the receiver is never
// modified.
type Dataset struct {
	names  []string
	tables map[string]*table.Table
}

// NewDataset builds a Dataset from tables keyed by their names.
func NewDataset(tables ...*table.Table) Dataset {
	return Dataset{}.With(tables...)
}

// With returns a copy of d with tables added. A table whose name is already
// present replaces the old one in place.
func (d Dataset) With(tables ...*table.Table) Dataset {
	out := Dataset{
		names:  slices.Clone(d.names),
		tables: make(map[string]*table.Table, len(d.tables)+len(tables)),
	}
	for k, v := range d.tables {
		out.tables[k] = v
	}
	for _, t := range tables {
		if _, ok := out.tables[t.Name]; !ok {
			out.names = append(out.names, t.Name)
		}
		out.tables[t.Name] = t
	}
	return out
}

// Get returns the named table.
func (d Dataset) Get(name string) (*table.Table, bool) {
	t, ok := d.tables[name]
	return t, ok
}

// Table returns the named table or a schema error attributed to op.
func (d Dataset) Table(op, name string) (*table.Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, core.Errorf(core.ErrSchema, op, "dataset has no table %q", name)
	}
	return t, nil
}

// Names lists table names in insertion order.
func (d Dataset) Names() []string {
	return slices.Clone(d.names)
}

// Len returns the number of tables.
func (d Dataset) Len() int {
	return len(d.names)
}

// changedRows counts the rows of tables in d that are new or replaced
// relative to prev.
func (d Dataset) changedRows(prev Dataset) int64 {
	var n int64
	for _, name := range d.names {
		t := d.tables[name]
		if old, ok := prev.tables[name]; ok && old == t {
			continue
		}
		n += int64(t.Len())
	}
	return n
}
