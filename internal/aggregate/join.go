// Package aggregate implements the merge and aggregation stages: outer
// joins, grouped aggregates, threshold bands, correlation, descriptive
// statistics, running totals and dimension tables.
package aggregate

import (
	"slices"
	"sort"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Suffixes appended to non-key columns present on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// OuterJoin combines left and right on keys, keeping every key tuple found
// in either input. Columns of the side without a match are null. Both
// inputs must be unique on keys. The result is sorted by key tuple.
func OuterJoin(left, right *table.Table, keys ...string) (*table.Table, error) {
	const op = "outer join"

	if len(keys) == 0 {
		return nil, core.Errorf(core.ErrSchema, op, "no join keys")
	}
	if err := left.Require(op, keys...); err != nil {
		return nil, err
	}
	if err := right.Require(op, keys...); err != nil {
		return nil, err
	}

	if err := requireUnique(left, keys); err != nil {
		return nil, err
	}
	if err := requireUnique(right, keys); err != nil {
		return nil, err
	}

	lOther := nonKey(left.Columns, keys)
	rOther := nonKey(right.Columns, keys)
	columns := slices.Clone(keys)
	for _, c := range lOther {
		if slices.Contains(rOther, c) {
			c += LeftSuffix
		}
		columns = append(columns, c)
	}
	for _, c := range rOther {
		if slices.Contains(lOther, c) {
			c += RightSuffix
		}
		columns = append(columns, c)
	}

	type entry struct {
		key   []any
		left  []any
		right []any
	}
	entries := make(map[string]*entry, left.Len()+right.Len())
	order := make([]*entry, 0, left.Len()+right.Len())
	collect := func(t *table.Table, isLeft bool) {
		kidx := t.Indexes(keys...)
		for _, row := range t.Rows {
			key := pick(row, kidx)
			ks := table.Key(key...)
			e, ok := entries[ks]
			if !ok {
				e = &entry{key: key}
				entries[ks] = e
				order = append(order, e)
			}
			if isLeft {
				e.left = row
			} else {
				e.right = row
			}
		}
	}
	collect(left, true)
	collect(right, false)

	sort.SliceStable(order, func(i, j int) bool {
		return table.CompareTuple(order[i].key, order[j].key) < 0
	})

	lIdx := left.Indexes(lOther...)
	rIdx := right.Indexes(rOther...)
	out := table.New(left.Name, columns...)
	out.Rows = make([][]any, 0, len(order))
	for _, e := range order {
		row := make([]any, 0, len(columns))
		row = append(row, e.key...)
		row = appendSide(row, e.left, lIdx)
		row = appendSide(row, e.right, rIdx)
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func requireUnique(t *table.Table, keys []string) error {
	kidx := t.Indexes(keys...)
	seen := make(map[string]int, len(t.Rows))
	for i, row := range t.Rows {
		ks := table.Key(pick(row, kidx)...)
		if first, dup := seen[ks]; dup {
			return core.Errorf(core.ErrSchema, "outer join",
				"table %q: rows %d and %d share key %v", t.Name, first+1, i+1, pick(row, kidx))
		}
		seen[ks] = i
	}
	return nil
}

func nonKey(columns, keys []string) []string {
	var out []string
	for _, c := range columns {
		if !slices.Contains(keys, c) {
			out = append(out, c)
		}
	}
	return out
}

func pick(row []any, idx []int) []any {
	out := make([]any, len(idx))
	for k, j := range idx {
		out[k] = row[j]
	}
	return out
}

func appendSide(row, src []any, idx []int) []any {
	for _, j := range idx {
		if src == nil {
			row = append(row, nil)
			continue
		}
		row = append(row, src[j])
	}
	return row
}
