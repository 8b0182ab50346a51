package aggregate

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Band labels every value at or above Min, up to the next band.
type Band struct {
	Min   float64
	Label string
}

// Bands is a total threshold function. Thresholds are checked from the
// highest Min down; the first one whose Min is not above the value wins and
// values below every threshold get Default.
type Bands struct {
	Thresholds []Band
	Default    string
}

// ActivityBands classifies average daily steps.
func ActivityBands() Bands {
	return Bands{
		Thresholds: []Band{
			{Min: 10000, Label: "Very Active"},
			{Min: 7500, Label: "Moderately Active"},
			{Min: 5000, Label: "Lightly Active"},
		},
		Default: "Sedentary",
	}
}

// UsageBands classifies the number of days a user logged over a 31-day window.
func UsageBands() Bands {
	return Bands{
		Thresholds: []Band{
			{Min: 25, Label: "High Use"},
			{Min: 15, Label: "Moderate Use"},
		},
		Default: "Low Use",
	}
}

// Validate checks that every label is set and no two thresholds share a Min.
func (b Bands) Validate() error {
	if b.Default == "" {
		return fmt.Errorf("bands: default label is required")
	}
	seen := make(map[float64]bool, len(b.Thresholds))
	for _, t := range b.Thresholds {
		if t.Label == "" {
			return fmt.Errorf("bands: threshold %v has no label", t.Min)
		}
		if math.IsNaN(t.Min) {
			return fmt.Errorf("bands: threshold %q has no minimum", t.Label)
		}
		if seen[t.Min] {
			return fmt.Errorf("bands: duplicate threshold %v", t.Min)
		}
		seen[t.Min] = true
	}
	return nil
}

func (b Bands) descending() []Band {
	out := slices.Clone(b.Thresholds)
	slices.SortStableFunc(out, func(x, y Band) int { return cmp.Compare(y.Min, x.Min) })
	return out
}

// Label returns the band label of v.
func (b Bands) Label(v float64) string {
	for _, t := range b.descending() {
		if v >= t.Min {
			return t.Label
		}
	}
	return b.Default
}

// Labels lists every label from the lowest band to the highest.
func (b Bands) Labels() []string {
	desc := b.descending()
	out := []string{b.Default}
	for i := len(desc) - 1; i >= 0; i-- {
		out = append(out, desc[i].Label)
	}
	return out
}

// Categorize adds column dst holding the band label of the numeric column
// src. Null inputs produce a null label.
func Categorize(t *table.Table, src, dst string, bands Bands) (*table.Table, error) {
	const op = "categorize"

	j := t.Index(src)
	if j < 0 {
		return nil, core.Errorf(core.ErrSchema, op, "table %q has no column %q", t.Name, src)
	}
	if t.Has(dst) {
		return nil, core.Errorf(core.ErrSchema, op, "table %q already has column %q", t.Name, dst)
	}

	desc := Bands{Thresholds: bands.descending(), Default: bands.Default}
	out := table.New(t.Name, append(slices.Clone(t.Columns), dst)...)
	out.Rows = make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		r := append(slices.Clone(row), nil)
		if row[j] != nil {
			f, ok := table.Float(row[j])
			if !ok {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %v is not numeric", t.Name, i+1, src, row[j])
			}
			r[len(r)-1] = desc.Label(f)
		}
		out.Rows[i] = r
	}
	return out, nil
}

// Share computes the percentage of rows carrying each distinct non-null
// value of col, rounded to one decimal. Rows are ordered by share
// descending, then by value.
func Share(t *table.Table, col string) (*table.Table, error) {
	counts, err := GroupBy(t, col, Count(col, "count"))
	if err != nil {
		return nil, err
	}
	var total int64
	for _, row := range counts.Rows {
		total += row[1].(int64)
	}

	rows := slices.Clone(counts.Rows)
	slices.SortStableFunc(rows, func(a, b []any) int {
		return cmp.Compare(b[1].(int64), a[1].(int64))
	})

	out := table.New(t.Name, col, "count", "percent")
	for _, row := range rows {
		n := row[1].(int64)
		pct := math.Round(float64(n)/float64(total)*1000) / 10
		out.Append(row[0], n, pct)
	}
	return out, nil
}
