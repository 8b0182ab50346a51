package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/aggregate"
	"github.com/leapstack-labs/leapflow/internal/chart"
	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

const dailyActivityCSV = `Id,ActivityDate,TotalSteps,VeryActiveMinutes,SedentaryMinutes,Calories
1,4/12/2016,12000,30,600,2000
1,4/13/2016,8000,10,700,1800
1,4/13/2016,8000,10,700,1800
2,4/12/2016,3000,0,1200,1500
`

const sleepDayCSV = `Id,SleepDay,TotalSleepRecords,TotalMinutesAsleep,TotalTimeInBed
1,4/12/2016 12:00:00 AM,1,420,450
1,4/13/2016 12:00:00 AM,1,380,400
1,4/13/2016 12:00:00 AM,1,380,400
`

func activityConfig(t *testing.T, charts bool) ActivityConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := ActivityConfig{
		ActivityPath:  writeFile(t, dir, "dailyActivity_merged.csv", dailyActivityCSV),
		SleepPath:     writeFile(t, dir, "sleepDay_merged.csv", sleepDayCSV),
		OutputPath:    filepath.Join(dir, "out", "combined_bellabeat_data_cleaned.csv"),
		ActivityBands: aggregate.ActivityBands(),
		UsageBands:    aggregate.UsageBands(),
	}
	if charts {
		cfg.ChartsDir = filepath.Join(dir, "charts")
	}
	return cfg
}

func TestActivity_OuterJoinKeepsUsersWithoutSleep(t *testing.T) {
	cfg := activityConfig(t, false)
	p, err := Activity(cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)

	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	combined, ok := res.Data.Get(TableCombined)
	require.True(t, ok)
	assert.Equal(t, []string{
		"user_id", "date", "TotalSteps", "VeryActiveMinutes", "SedentaryMinutes", "Calories",
		"TotalSleepRecords", "TotalMinutesAsleep", "TotalTimeInBed",
	}, combined.Columns)
	require.Equal(t, 3, combined.Len())

	assert.Equal(t, []any{int64(1), day(2016, 4, 12), int64(12000), int64(30), int64(600), int64(2000), int64(1), int64(420), int64(450)}, combined.Rows[0])
	assert.Equal(t, []any{int64(2), day(2016, 4, 12), int64(3000), int64(0), int64(1200), int64(1500), nil, nil, nil}, combined.Rows[2])

	data, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "user_id,date,TotalSteps")
	assert.Contains(t, string(data), "2,2016-04-12,3000,0,1200,1500,,,\n")
}

func TestActivity_Profiles(t *testing.T) {
	p, err := Activity(activityConfig(t, false), nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	usage, _ := res.Data.Get(TableUsage)
	assert.Equal(t, [][]any{
		{int64(1), int64(2), "Low Use"},
		{int64(2), int64(1), "Low Use"},
	}, usage.Rows)

	levels, _ := res.Data.Get(TableActivityLevels)
	assert.Equal(t, [][]any{
		{int64(1), 10000.0, "Very Active"},
		{int64(2), 3000.0, "Sedentary"},
	}, levels.Rows)

	share, _ := res.Data.Get(TableActivityShare)
	assert.Equal(t, []string{"activity_type", "count", "percent"}, share.Columns)
	assert.Len(t, share.Rows, 2)
	assert.Equal(t, 50.0, share.Rows[0][2])

	summary, _ := res.Data.Get(TableSummary)
	require.Equal(t, len(KeyMetrics), summary.Len())
	assert.Equal(t, "TotalSteps", summary.Rows[0][0])
	assert.Equal(t, int64(3), summary.Rows[0][1])
	assert.Equal(t, "TotalMinutesAsleep", summary.Rows[1][0])
	assert.Equal(t, int64(2), summary.Rows[1][1])

	corr, _ := res.Data.Get(TableCorrelation)
	assert.Equal(t, []string{"column", "correlation"}, corr.Columns)
	assert.Equal(t, len(KeyMetrics), corr.Len())
}

func TestActivity_SleepOnlyUserHasNoActivityType(t *testing.T) {
	cfg := activityConfig(t, false)
	cfg.SleepPath = writeFile(t, t.TempDir(), "sleepDay_merged.csv",
		sleepDayCSV+"3,4/14/2016 12:00:00 AM,1,500,520\n")
	p, err := Activity(cfg, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), nil)
	require.NoError(t, err)

	levels, _ := res.Data.Get(TableActivityLevels)
	require.Equal(t, 3, levels.Len())
	assert.Equal(t, []any{int64(3), nil, nil}, levels.Rows[2])
}

func TestActivity_Charts(t *testing.T) {
	cfg := activityConfig(t, true)
	p, err := Activity(cfg, nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background(), nil)
	require.NoError(t, err)

	for _, f := range []string{chart.ActivityDistributionFile, chart.StepsVsSleepFile, chart.UsageConsistencyFile} {
		_, err := os.Stat(filepath.Join(cfg.ChartsDir, f))
		assert.NoError(t, err, f)
	}
}

func TestActivity_Errors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		cfg := activityConfig(t, false)
		cfg.SleepPath = filepath.Join(t.TempDir(), "nope.csv")
		p, err := Activity(cfg, nil)
		require.NoError(t, err)

		_, err = p.Run(context.Background(), nil)
		assert.ErrorIs(t, err, core.ErrLoad)
		_, statErr := os.Stat(cfg.OutputPath)
		assert.True(t, os.IsNotExist(statErr), "no output after a failed run")
	})

	t.Run("bad date aborts the run", func(t *testing.T) {
		cfg := activityConfig(t, false)
		cfg.ActivityPath = writeFile(t, t.TempDir(), "a.csv",
			"Id,ActivityDate,TotalSteps,VeryActiveMinutes,SedentaryMinutes,Calories\n1,2016-13-45,1,1,1,1\n")
		p, err := Activity(cfg, nil)
		require.NoError(t, err)

		_, err = p.Run(context.Background(), nil)
		assert.ErrorIs(t, err, core.ErrParse)
		assert.Contains(t, err.Error(), `column "date"`)
	})

	t.Run("invalid bands", func(t *testing.T) {
		cfg := activityConfig(t, false)
		cfg.UsageBands = aggregate.Bands{}
		_, err := Activity(cfg, nil)
		assert.Error(t, err)
	})
}
