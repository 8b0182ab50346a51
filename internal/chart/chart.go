// Package chart renders the activity study charts as PNG images.
package chart

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// ErrNoData is returned when a chart has nothing to plot. No file is written.
var ErrNoData = errors.New("chart: no data points")

// Output file names.
const (
	ActivityDistributionFile = "viz_activity_distribution.png"
	StepsVsSleepFile         = "viz_steps_vs_sleep.png"
	UsageConsistencyFile     = "viz_usage_consistency.png"
)

// Image size.
const (
	Width  = 10 * vg.Inch
	Height = 6 * vg.Inch
)

var (
	barColor       = color.RGBA{R: 0x44, G: 0x01, B: 0x54, A: 0xff}
	pointColor     = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x99}
	lineColor      = color.RGBA{R: 0xff, G: 0x7f, B: 0x50, A: 0xff}
	thresholdColor = color.Gray{Y: 0x80}
)

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}

func save(p *plot.Plot, path string) error {
	const op = "save chart"
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return core.Wrap(core.ErrWrite, op, err)
		}
	}
	if err := p.Save(Width, Height, path); err != nil {
		return core.Wrap(core.ErrWrite, op, err)
	}
	return nil
}

// numericPairs returns the rows of t where both x and y are numeric.
func numericPairs(t *table.Table, x, y string) (plotter.XYs, error) {
	if err := t.Require("chart", x, y); err != nil {
		return nil, err
	}
	xj, yj := t.Index(x), t.Index(y)
	var xys plotter.XYs
	for _, row := range t.Rows {
		xv, xok := table.Float(row[xj])
		yv, yok := table.Float(row[yj])
		if xok && yok {
			xys = append(xys, plotter.XY{X: xv, Y: yv})
		}
	}
	return xys, nil
}
