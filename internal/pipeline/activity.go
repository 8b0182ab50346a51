package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/leapflow/internal/aggregate"
	"github.com/leapstack-labs/leapflow/internal/chart"
	"github.com/leapstack-labs/leapflow/internal/cleaner"
	"github.com/leapstack-labs/leapflow/internal/loader"
	"github.com/leapstack-labs/leapflow/internal/persist"
	"github.com/leapstack-labs/leapflow/internal/table"
)

// Table names produced by the activity pipeline.
const (
	TableActivity       = "activity"
	TableSleep          = "sleep"
	TableCombined       = "combined"
	TableSummary        = "summary"
	TableUsage          = "usage"
	TableUsageShare     = "usage_share"
	TableActivityLevels = "activity_levels"
	TableActivityShare  = "activity_share"
	TableCorrelation    = "correlation"
)

// Input columns of the fitness tracker exports.
var (
	ActivityColumns = []string{"Id", "ActivityDate", "TotalSteps", "VeryActiveMinutes", "SedentaryMinutes", "Calories"}
	SleepColumns    = []string{"Id", "SleepDay", "TotalSleepRecords", "TotalMinutesAsleep", "TotalTimeInBed"}
)

// KeyMetrics are the columns described and correlated by the activity study.
var KeyMetrics = []string{
	"TotalSteps",
	"TotalMinutesAsleep",
	"TotalTimeInBed",
	"Calories",
	"VeryActiveMinutes",
	"SedentaryMinutes",
}

// ActivityConfig configures the fitness tracker usage study.
type ActivityConfig struct {
	ActivityPath  string
	SleepPath     string
	OutputPath    string
	ChartsDir     string
	ActivityBands aggregate.Bands
	UsageBands    aggregate.Bands
}

// Activity builds the fitness tracker usage study: load the daily activity
// and sleep exports, normalize keys and dates, outer join them on
// (user_id, date), derive usage and activity profiles and write the merged
// table to CSV, plus charts when a charts directory is set.
func Activity(cfg ActivityConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.ActivityBands.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.UsageBands.Validate(); err != nil {
		return nil, err
	}

	a := &activityStages{cfg: cfg, logger: logger}
	return New("activity", logger,
		Stage{Name: "load", Kind: KindLoad, Run: a.load},
		Stage{Name: "clean", Kind: KindClean, Run: a.clean},
		Stage{Name: "merge", Kind: KindMerge, Run: a.merge},
		Stage{Name: "analyze", Kind: KindMerge, Run: a.analyze},
		Stage{Name: "export", Kind: KindPersist, Run: a.export},
	)
}

type activityStages struct {
	cfg    ActivityConfig
	logger *slog.Logger
}

func (a *activityStages) load(_ context.Context, in Dataset) (Dataset, error) {
	activity, err := loader.ReadCSV(a.cfg.ActivityPath, ActivityColumns...)
	if err != nil {
		return Dataset{}, err
	}
	sleep, err := loader.ReadCSV(a.cfg.SleepPath, SleepColumns...)
	if err != nil {
		return Dataset{}, err
	}
	return in.With(activity.WithName(TableActivity), sleep.WithName(TableSleep)), nil
}

func (a *activityStages) clean(_ context.Context, in Dataset) (Dataset, error) {
	activity, err := in.Table("clean", TableActivity)
	if err != nil {
		return Dataset{}, err
	}
	sleep, err := in.Table("clean", TableSleep)
	if err != nil {
		return Dataset{}, err
	}

	activity, err = a.normalize(activity, "ActivityDate", cleaner.ActivityDateLayout)
	if err != nil {
		return Dataset{}, err
	}
	// Sleep days carry a time of day; general parsing drops it.
	sleep, err = a.normalize(sleep, "SleepDay", "")
	if err != nil {
		return Dataset{}, err
	}
	return in.With(activity, sleep), nil
}

// normalize renames the user and date columns, parses dates and removes
// duplicates so (user_id, date) is unique.
func (a *activityStages) normalize(t *table.Table, dateCol, layout string) (*table.Table, error) {
	t, err := cleaner.Rename(t, map[string]string{"Id": "user_id", dateCol: "date"})
	if err != nil {
		return nil, err
	}
	t, err = cleaner.ParseDates(t, "date", layout)
	if err != nil {
		return nil, err
	}

	t, dups := cleaner.Dedupe(t)
	t, conflicts, err := cleaner.DedupeKeys(t, "user_id", "date")
	if err != nil {
		return nil, err
	}
	a.logger.Info("cleaned table", "table", t.Name, "rows", t.Len(), "duplicates", dups, "key_conflicts", conflicts)
	return t, nil
}

func (a *activityStages) merge(_ context.Context, in Dataset) (Dataset, error) {
	activity, err := in.Table("merge", TableActivity)
	if err != nil {
		return Dataset{}, err
	}
	sleep, err := in.Table("merge", TableSleep)
	if err != nil {
		return Dataset{}, err
	}
	combined, err := aggregate.OuterJoin(activity, sleep, "user_id", "date")
	if err != nil {
		return Dataset{}, err
	}
	a.logger.Info("merged activity and sleep", "rows", combined.Len())
	return in.With(combined.WithName(TableCombined)), nil
}

func (a *activityStages) analyze(_ context.Context, in Dataset) (Dataset, error) {
	combined, err := in.Table("analyze", TableCombined)
	if err != nil {
		return Dataset{}, err
	}

	summary, err := aggregate.Describe(combined, KeyMetrics...)
	if err != nil {
		return Dataset{}, err
	}

	usage, err := aggregate.GroupBy(combined, "user_id", aggregate.Count("date", "days_logged"))
	if err != nil {
		return Dataset{}, err
	}
	usage, err = aggregate.Categorize(usage, "days_logged", "usage_type", a.cfg.UsageBands)
	if err != nil {
		return Dataset{}, err
	}
	usageShare, err := aggregate.Share(usage, "usage_type")
	if err != nil {
		return Dataset{}, err
	}

	levels, err := aggregate.GroupBy(combined, "user_id", aggregate.Mean("TotalSteps", "avg_steps"))
	if err != nil {
		return Dataset{}, err
	}
	// Users with sleep rows only have no average and stay unlabelled rather
	// than falling into the lowest band.
	levels, err = aggregate.Categorize(levels, "avg_steps", "activity_type", a.cfg.ActivityBands)
	if err != nil {
		return Dataset{}, err
	}
	activityShare, err := aggregate.Share(levels, "activity_type")
	if err != nil {
		return Dataset{}, err
	}

	corr, err := aggregate.Correlate(combined, KeyMetrics, "TotalMinutesAsleep")
	if err != nil {
		return Dataset{}, err
	}

	return in.With(
		summary.WithName(TableSummary),
		usage.WithName(TableUsage),
		usageShare.WithName(TableUsageShare),
		levels.WithName(TableActivityLevels),
		activityShare.WithName(TableActivityShare),
		corr.WithName(TableCorrelation),
	), nil
}

func (a *activityStages) export(_ context.Context, in Dataset) (Dataset, error) {
	combined, err := in.Table("export", TableCombined)
	if err != nil {
		return Dataset{}, err
	}
	if err := persist.WriteCSV(combined, a.cfg.OutputPath); err != nil {
		return Dataset{}, err
	}
	a.logger.Info("wrote merged table", "path", a.cfg.OutputPath, "rows", combined.Len())

	if a.cfg.ChartsDir != "" {
		if err := a.charts(in); err != nil {
			return Dataset{}, err
		}
	}
	return in, nil
}

func (a *activityStages) charts(in Dataset) error {
	combined, _ := in.Get(TableCombined)
	levels, ok := in.Get(TableActivityLevels)
	if !ok {
		return nil
	}
	usage, _ := in.Get(TableUsage)

	// The line marks the lowest usage band above Default.
	var moderate float64
	for i, b := range a.cfg.UsageBands.Thresholds {
		if i == 0 || b.Min < moderate {
			moderate = b.Min
		}
	}

	dir := a.cfg.ChartsDir
	renders := []struct {
		file   string
		render func(path string) error
	}{
		{chart.ActivityDistributionFile, func(p string) error {
			return chart.ActivityDistribution(levels, "activity_type", a.cfg.ActivityBands.Labels(), p)
		}},
		{chart.StepsVsSleepFile, func(p string) error {
			return chart.StepsVsSleep(combined, "TotalSteps", "TotalMinutesAsleep", p)
		}},
		{chart.UsageConsistencyFile, func(p string) error {
			return chart.UsageConsistency(usage, "days_logged", moderate, p)
		}},
	}
	for _, r := range renders {
		path := filepath.Join(dir, r.file)
		err := r.render(path)
		switch {
		case errors.Is(err, chart.ErrNoData):
			a.logger.Warn("skipped empty chart", "chart", r.file)
		case err != nil:
			return err
		default:
			a.logger.Info("wrote chart", "path", path)
		}
	}
	return nil
}
