package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	tbl := table.New("combined", "TotalSteps", "Calories", "Empty")
	tbl.Append(int64(4), 10.0, nil)
	tbl.Append(int64(1), nil, nil)
	tbl.Append(int64(3), nil, nil)
	tbl.Append(int64(2), nil, nil)

	out, err := Describe(tbl, "TotalSteps", "Calories", "Empty")
	require.NoError(t, err)
	require.Equal(t, DescribeColumns, out.Columns)
	require.Equal(t, 3, out.Len())

	steps := out.Rows[0]
	assert.Equal(t, "TotalSteps", steps[0])
	assert.Equal(t, int64(4), steps[1])
	assert.InDelta(t, 2.5, steps[2], 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0), steps[3], 1e-9)
	assert.InDelta(t, 1.0, steps[4], 1e-9)
	assert.InDelta(t, 1.75, steps[5], 1e-9)
	assert.InDelta(t, 2.5, steps[6], 1e-9)
	assert.InDelta(t, 3.25, steps[7], 1e-9)
	assert.InDelta(t, 4.0, steps[8], 1e-9)

	single := out.Rows[1]
	assert.Equal(t, int64(1), single[1])
	assert.Nil(t, single[3], "std of one value is undefined")
	assert.InDelta(t, 10.0, single[6], 1e-9)

	empty := out.Rows[2]
	assert.Equal(t, []any{"Empty", int64(0), nil, nil, nil, nil, nil, nil, nil}, empty)
}

func TestDescribe_NonNumeric(t *testing.T) {
	tbl := table.New("t", "name")
	tbl.Append("x")
	_, err := Describe(tbl, "name")
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestCorrelate(t *testing.T) {
	tbl := table.New("combined", "TotalMinutesAsleep", "Up", "Down", "Flat", "Sparse")
	tbl.Append(int64(1), int64(2), int64(4), int64(5), nil)
	tbl.Append(int64(2), int64(4), int64(3), int64(5), int64(9))
	tbl.Append(int64(3), int64(6), int64(2), int64(5), nil)
	tbl.Append(int64(4), int64(8), int64(1), int64(5), nil)
	tbl.Append(nil, int64(100), int64(100), int64(5), int64(1))

	out, err := Correlate(tbl, []string{"Flat", "Down", "Sparse", "Up"}, "TotalMinutesAsleep")
	require.NoError(t, err)
	require.Equal(t, []string{"column", "correlation"}, out.Columns)

	assert.Equal(t, []any{"Up", "Down", "Flat", "Sparse"}, out.Column("column"))
	assert.InDelta(t, 1.0, out.Rows[0][1], 1e-9)
	assert.InDelta(t, -1.0, out.Rows[1][1], 1e-9)
	assert.Nil(t, out.Rows[2][1])
	assert.Nil(t, out.Rows[3][1])
}

func TestRunningTotal(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC) }
	tbl := table.New("line_items", "category", "total_amount", "transaction_date")
	tbl.Append("Electronics", 100.0, d(5))
	tbl.Append("Books", 50.0, d(2))
	tbl.Append("Electronics", 20.5, d(3))
	tbl.Append("Toys", int64(50), d(4))
	tbl.Append("Books", nil, d(1))

	out, err := RunningTotal(tbl, "category", "total_amount", "transaction_date")
	require.NoError(t, err)

	assert.Equal(t, []string{"category", TotalColumn, CumulativeColumn}, out.Columns)
	assert.Equal(t, [][]any{
		{"Electronics", 120.5, 170.5},
		{"Books", 50.0, 50.0},
		{"Toys", 50.0, 220.5},
	}, out.Rows)
}

func TestRunningTotal_ExactDecimalSums(t *testing.T) {
	tbl := table.New("line_items", "category", "total_amount", "transaction_date")
	for range 10 {
		tbl.Append("Books", 0.1, nil)
	}
	out, err := RunningTotal(tbl, "category", "total_amount", "transaction_date")
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.Rows[0][1])
}

func TestRunningTotal_BadValue(t *testing.T) {
	tbl := table.New("line_items", "category", "total_amount", "transaction_date")
	tbl.Append("Books", "twelve", nil)
	_, err := RunningTotal(tbl, "category", "total_amount", "transaction_date")
	assert.ErrorIs(t, err, core.ErrParse)
}
