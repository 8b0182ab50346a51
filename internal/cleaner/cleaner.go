// Package cleaner implements the record-level normalization stages:
// column renames, date parsing, count filling, title casing, duplicate
// removal and projections. Every function returns a new table and leaves
// its input untouched.
package cleaner

import (
	"slices"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Rename renames columns according to mapping (old name to new name).
// Every old name must exist in t.
func Rename(t *table.Table, mapping map[string]string) (*table.Table, error) {
	const op = "rename"

	out := t.Clone()
	for from, to := range mapping {
		j := out.Index(from)
		if j < 0 {
			return nil, core.Errorf(core.ErrSchema, op, "table %q has no column %q", t.Name, from)
		}
		out.Columns[j] = to
	}
	seen := make(map[string]bool, len(out.Columns))
	for _, c := range out.Columns {
		if seen[c] {
			return nil, core.Errorf(core.ErrSchema, op, "table %q: rename produces duplicate column %q", t.Name, c)
		}
		seen[c] = true
	}
	return out, nil
}

// Drop removes the named columns. Absent columns are ignored.
func Drop(t *table.Table, cols ...string) *table.Table {
	keep := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !slices.Contains(cols, c) {
			keep = append(keep, c)
		}
	}
	out, _ := Select(t, keep...)
	return out
}

// Select projects t onto cols in the given order.
func Select(t *table.Table, cols ...string) (*table.Table, error) {
	if err := t.Require("select", cols...); err != nil {
		return nil, err
	}
	idx := t.Indexes(cols...)
	out := table.New(t.Name, cols...)
	out.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := make([]any, len(idx))
		for k, j := range idx {
			r[k] = row[j]
		}
		out.Rows[i] = r
	}
	return out, nil
}

// Dedupe drops rows that exactly duplicate an earlier row and reports how
// many were removed. Applying it twice removes nothing the second time.
func Dedupe(t *table.Table) (*table.Table, int) {
	out := table.New(t.Name, t.Columns...)
	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		k := table.Key(row...)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, slices.Clone(row))
	}
	return out, len(t.Rows) - len(out.Rows)
}

// DedupeKeys keeps the first row for every distinct key tuple and reports
// how many rows were removed.
func DedupeKeys(t *table.Table, keys ...string) (*table.Table, int, error) {
	if err := t.Require("dedupe", keys...); err != nil {
		return nil, 0, err
	}
	idx := t.Indexes(keys...)
	out := table.New(t.Name, t.Columns...)
	seen := make(map[string]struct{}, len(t.Rows))
	key := make([]any, len(idx))
	for _, row := range t.Rows {
		for k, j := range idx {
			key[k] = row[j]
		}
		ks := table.Key(key...)
		if _, dup := seen[ks]; dup {
			continue
		}
		seen[ks] = struct{}{}
		out.Rows = append(out.Rows, slices.Clone(row))
	}
	return out, len(t.Rows) - len(out.Rows), nil
}
