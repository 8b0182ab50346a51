package aggregate

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Output columns of RunningTotal besides the group column.
const (
	TotalColumn      = "total_revenue"
	CumulativeColumn = "cumulative_total_sales"
)

// RunningTotal sums value per distinct group and adds a cumulative total
// accumulated in (group ascending, earliest orderBy ascending) order. Rows
// are returned by total descending; equal totals keep the order in which
// their groups first appear in t. Sums use exact decimal arithmetic.
func RunningTotal(t *table.Table, group, value, orderBy string) (*table.Table, error) {
	const op = "running total"

	if err := t.Require(op, group, value, orderBy); err != nil {
		return nil, err
	}
	gj, vj, oj := t.Index(group), t.Index(value), t.Index(orderBy)

	type bucket struct {
		key      any
		total    decimal.Decimal
		earliest any
		cum      decimal.Decimal
	}
	index := make(map[string]*bucket)
	var buckets []*bucket
	for i, row := range t.Rows {
		ks := table.Key(row[gj])
		b, ok := index[ks]
		if !ok {
			b = &bucket{key: row[gj]}
			index[ks] = b
			buckets = append(buckets, b)
		}
		if row[vj] != nil {
			d, err := toDecimal(row[vj])
			if err != nil {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %w", t.Name, i+1, value, err)
			}
			b.total = b.total.Add(d)
		}
		if o := row[oj]; o != nil && (b.earliest == nil || table.Compare(o, b.earliest) < 0) {
			b.earliest = o
		}
	}

	ordered := slices.Clone(buckets)
	slices.SortStableFunc(ordered, func(a, b *bucket) int {
		if c := table.Compare(a.key, b.key); c != 0 {
			return c
		}
		return table.Compare(a.earliest, b.earliest)
	})
	running := decimal.Zero
	for _, b := range ordered {
		running = running.Add(b.total)
		b.cum = running
	}

	ranked := slices.Clone(buckets)
	slices.SortStableFunc(ranked, func(a, b *bucket) int { return b.total.Cmp(a.total) })

	out := table.New(t.Name, group, TotalColumn, CumulativeColumn)
	for _, b := range ranked {
		out.Append(b.key, b.total.InexactFloat64(), b.cum.InexactFloat64())
	}
	return out, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	default:
		return decimal.Zero, &strconv.NumError{Func: "decimal", Num: table.Format(x), Err: strconv.ErrSyntax}
	}
}
