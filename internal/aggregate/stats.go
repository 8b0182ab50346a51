package aggregate

import (
	"cmp"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// DescribeColumns are the statistics Describe reports for every column.
var DescribeColumns = []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe summarizes each numeric column: non-null count, mean, sample
// standard deviation, minimum, quartiles and maximum. Statistics that are
// undefined for the available values are null.
func Describe(t *table.Table, cols ...string) (*table.Table, error) {
	const op = "describe"

	if err := t.Require(op, cols...); err != nil {
		return nil, err
	}
	out := table.New(t.Name, DescribeColumns...)
	for _, c := range cols {
		xs, err := numeric(t, c, op)
		if err != nil {
			return nil, err
		}
		row := []any{c, int64(len(xs)), nil, nil, nil, nil, nil, nil, nil}
		if len(xs) > 0 {
			sort.Float64s(xs)
			row[2] = stat.Mean(xs, nil)
			if len(xs) > 1 {
				row[3] = stat.StdDev(xs, nil)
			}
			row[4] = floats.Min(xs)
			row[5] = quantile(xs, 0.25)
			row[6] = quantile(xs, 0.5)
			row[7] = quantile(xs, 0.75)
			row[8] = floats.Max(xs)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// quantile interpolates linearly between the closest ranks of sorted xs,
// h = (n-1)p.
func quantile(xs []float64, p float64) float64 {
	h := float64(len(xs)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(xs) {
		return xs[len(xs)-1]
	}
	return xs[i] + (h-lo)*(xs[i+1]-xs[i])
}

// Correlate computes the Pearson correlation of each column in cols with
// target over the rows where both are non-null. The result has columns
// "column" and "correlation", sorted by correlation descending with
// undefined correlations (null) last.
func Correlate(t *table.Table, cols []string, target string) (*table.Table, error) {
	const op = "correlate"

	if err := t.Require(op, append([]string{target}, cols...)...); err != nil {
		return nil, err
	}
	tj := t.Index(target)

	type pair struct {
		col string
		r   float64
	}
	pairs := make([]pair, 0, len(cols))
	for _, c := range cols {
		cj := t.Index(c)
		var xs, ys []float64
		for i, row := range t.Rows {
			if row[cj] == nil || row[tj] == nil {
				continue
			}
			x, ok := table.Float(row[cj])
			if !ok {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %v is not numeric", t.Name, i+1, c, row[cj])
			}
			y, ok := table.Float(row[tj])
			if !ok {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %v is not numeric", t.Name, i+1, target, row[tj])
			}
			xs = append(xs, x)
			ys = append(ys, y)
		}
		r := math.NaN()
		if len(xs) > 1 {
			r = stat.Correlation(xs, ys, nil)
		}
		pairs = append(pairs, pair{col: c, r: r})
	}

	slices.SortStableFunc(pairs, func(a, b pair) int {
		switch an, bn := math.IsNaN(a.r), math.IsNaN(b.r); {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		return cmp.Compare(b.r, a.r)
	})

	out := table.New(t.Name, "column", "correlation")
	for _, p := range pairs {
		var v any
		if !math.IsNaN(p.r) && !math.IsInf(p.r, 0) {
			v = p.r
		}
		out.Append(p.col, v)
	}
	return out, nil
}

func numeric(t *table.Table, col, op string) ([]float64, error) {
	j := t.Index(col)
	var xs []float64
	for i, row := range t.Rows {
		if row[j] == nil {
			continue
		}
		f, ok := table.Float(row[j])
		if !ok {
			return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %v is not numeric", t.Name, i+1, col, row[j])
		}
		xs = append(xs, f)
	}
	return xs, nil
}
