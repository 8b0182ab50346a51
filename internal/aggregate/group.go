package aggregate

import (
	"sort"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// AggFunc names an aggregate function.
type AggFunc string

// Supported aggregate functions.
const (
	AggCount AggFunc = "count"
	AggMean  AggFunc = "mean"
	AggSum   AggFunc = "sum"
)

// Agg is one aggregate computed per group, stored in column As.
type Agg struct {
	Func AggFunc
	Col  string
	As   string
}

// Count counts the non-null cells of col.
func Count(col, as string) Agg { return Agg{Func: AggCount, Col: col, As: as} }

// Mean averages the numeric cells of col, ignoring nulls.
func Mean(col, as string) Agg { return Agg{Func: AggMean, Col: col, As: as} }

// Sum adds the numeric cells of col, ignoring nulls.
func Sum(col, as string) Agg { return Agg{Func: AggSum, Col: col, As: as} }

// GroupBy computes aggs for every distinct non-null value of key. The
// result has one row per key, sorted by key ascending, with the key column
// first followed by one column per aggregate.
func GroupBy(t *table.Table, key string, aggs ...Agg) (*table.Table, error) {
	const op = "group by"

	if err := t.Require(op, key); err != nil {
		return nil, err
	}
	for _, a := range aggs {
		if err := t.Require(op, a.Col); err != nil {
			return nil, err
		}
		switch a.Func {
		case AggCount, AggMean, AggSum:
		default:
			return nil, core.Errorf(core.ErrSchema, op, "unknown aggregate %q", a.Func)
		}
	}

	kj := t.Index(key)
	groups := make(map[string][][]any)
	var keys []any
	for _, row := range t.Rows {
		k := row[kj]
		if k == nil {
			continue
		}
		ks := table.Key(k)
		if _, ok := groups[ks]; !ok {
			keys = append(keys, k)
		}
		groups[ks] = append(groups[ks], row)
	}
	sort.SliceStable(keys, func(i, j int) bool { return table.Compare(keys[i], keys[j]) < 0 })

	columns := []string{key}
	for _, a := range aggs {
		columns = append(columns, a.As)
	}
	out := table.New(t.Name, columns...)
	for _, k := range keys {
		rows := groups[table.Key(k)]
		r := []any{k}
		for _, a := range aggs {
			r = append(r, apply(a.Func, rows, t.Index(a.Col)))
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

func apply(fn AggFunc, rows [][]any, j int) any {
	var (
		n        int64
		sum      float64
		isum     int64
		allInts  = true
		numerics int
	)
	for _, row := range rows {
		v := row[j]
		if v == nil {
			continue
		}
		n++
		f, ok := table.Float(v)
		if !ok {
			continue
		}
		numerics++
		sum += f
		if i, ok := v.(int64); ok {
			isum += i
		} else {
			allInts = false
		}
	}

	switch fn {
	case AggCount:
		return n
	case AggSum:
		if allInts {
			return isum
		}
		return sum
	default:
		if numerics == 0 {
			return nil
		}
		return sum / float64(numerics)
	}
}
