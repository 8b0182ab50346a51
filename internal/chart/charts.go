package chart

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/leapstack-labs/leapflow/internal/table"
)

// ActivityDistribution draws a bar per label in order with the number of
// rows of t whose col equals it.
func ActivityDistribution(t *table.Table, col string, order []string, path string) error {
	if err := t.Require("chart", col); err != nil {
		return err
	}
	if len(order) == 0 || t.Len() == 0 {
		return ErrNoData
	}

	counts := make(map[string]float64, len(order))
	j := t.Index(col)
	for _, row := range t.Rows {
		if s, ok := row[j].(string); ok {
			counts[s]++
		}
	}
	values := make(plotter.Values, len(order))
	for i, label := range order {
		values[i] = counts[label]
	}

	p := newPlot("User Distribution by Average Daily Activity Level",
		"Activity Level (Average Daily Steps)", "Number of Users")
	bars, err := plotter.NewBarChart(values, vg.Points(60))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(order...)
	return save(p, path)
}

// StepsVsSleep scatters x against y for rows where both are present.
func StepsVsSleep(t *table.Table, x, y, path string) error {
	xys, err := numericPairs(t, x, y)
	if err != nil {
		return err
	}
	if len(xys) == 0 {
		return ErrNoData
	}

	p := newPlot("Daily Total Steps vs. Total Minutes Asleep", "Total Steps", "Total Minutes Asleep")
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	s.GlyphStyle.Color = pointColor
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	return save(p, path)
}

// UsageConsistency plots col of every row sorted descending against the
// row rank, with a dashed horizontal line at threshold.
func UsageConsistency(t *table.Table, col string, threshold float64, path string) error {
	if err := t.Require("chart", col); err != nil {
		return err
	}
	var days []float64
	for _, v := range t.Column(col) {
		if f, ok := table.Float(v); ok {
			days = append(days, f)
		}
	}
	if len(days) == 0 {
		return ErrNoData
	}
	slices.SortStableFunc(days, func(a, b float64) int { return cmp.Compare(b, a) })

	xys := make(plotter.XYs, len(days))
	for i, d := range days {
		xys[i] = plotter.XY{X: float64(i + 1), Y: d}
	}

	p := newPlot("User Consistency (Days Logged Over 31-Day Period)",
		"User Index (Sorted by Logging Days)", "Days Logged")
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("failed to build line: %w", err)
	}
	line.LineStyle.Color = lineColor
	points.GlyphStyle.Color = lineColor
	p.Add(line, points)

	limit := plotter.NewFunction(func(float64) float64 { return threshold })
	limit.LineStyle.Color = thresholdColor
	limit.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(limit)
	p.Legend.Add(fmt.Sprintf("Moderate Use Threshold (%g days)", threshold), limit)
	p.Legend.Top = true

	p.X.Min, p.X.Max = 0.5, float64(len(days))+0.5
	return save(p, path)
}
