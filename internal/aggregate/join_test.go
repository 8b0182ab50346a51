package aggregate

import (
	"testing"
	"time"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2016, 4, d, 0, 0, 0, 0, time.UTC)
}

func TestOuterJoin_KeepsUnmatchedUsers(t *testing.T) {
	activity := table.New("activity", "user_id", "date", "TotalSteps")
	activity.Append("B", day(12), int64(4000))
	activity.Append("A", day(12), int64(12000))
	activity.Append("A", day(13), int64(8000))

	sleep := table.New("sleep", "user_id", "date", "TotalMinutesAsleep")
	sleep.Append("A", day(12), int64(420))
	sleep.Append("A", day(14), int64(380))

	out, err := OuterJoin(activity, sleep, "user_id", "date")
	require.NoError(t, err)

	assert.Equal(t, []string{"user_id", "date", "TotalSteps", "TotalMinutesAsleep"}, out.Columns)
	assert.Equal(t, [][]any{
		{"A", day(12), int64(12000), int64(420)},
		{"A", day(13), int64(8000), nil},
		{"A", day(14), nil, int64(380)},
		{"B", day(12), int64(4000), nil},
	}, out.Rows)

	assert.GreaterOrEqual(t, out.Len(), max(activity.Len(), sleep.Len()))
	assert.LessOrEqual(t, out.Len(), activity.Len()+sleep.Len())
}

func TestOuterJoin_SuffixesClashingColumns(t *testing.T) {
	left := table.New("l", "id", "value")
	left.Append(int64(1), "left")
	right := table.New("r", "id", "value")
	right.Append(int64(1), "right")

	out, err := OuterJoin(left, right, "id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "value_x", "value_y"}, out.Columns)
	assert.Equal(t, []any{int64(1), "left", "right"}, out.Rows[0])
}

func TestOuterJoin_Errors(t *testing.T) {
	dup := table.New("dup", "id")
	dup.Append(int64(1))
	dup.Append(int64(1))
	other := table.New("other", "id")

	_, err := OuterJoin(dup, other, "id")
	assert.ErrorIs(t, err, core.ErrSchema)

	_, err = OuterJoin(other, table.New("nokey", "x"), "id")
	assert.ErrorIs(t, err, core.ErrSchema)

	_, err = OuterJoin(other, other)
	assert.ErrorIs(t, err, core.ErrSchema)
}

func TestBuildDimension_FirstNonNullAttribute(t *testing.T) {
	needs := table.New("needs", "region_id", "region_name", "shelter_needed")
	needs.Append(int64(1), nil, int64(3))
	needs.Append(int64(2), "South", int64(0))
	needs.Append(int64(1), "North", int64(5))

	logistics := table.New("logistics", "region_id", "aid_type")
	logistics.Append(int64(3), "Shelter")
	logistics.Append(int64(1), "Food")
	logistics.Append(nil, "Food")

	out, err := BuildDimension("Regions", "region_id", []string{"region_name"}, needs, logistics)
	require.NoError(t, err)
	assert.Equal(t, "Regions", out.Name)
	assert.Equal(t, []string{"region_id", "region_name"}, out.Columns)
	assert.Equal(t, [][]any{
		{int64(1), "North"},
		{int64(2), "South"},
		{int64(3), nil},
	}, out.Rows)

	_, err = BuildDimension("Regions", "region_id", nil)
	assert.ErrorIs(t, err, core.ErrSchema)
}
