package commands

import (
	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewActivityCommand creates the activity command.
func NewActivityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Run the fitness tracker usage study",
		Long: `Run the fitness tracker usage study.

Loads the daily activity and sleep exports, drops duplicate records, merges
them per user and day, profiles usage frequency and activity levels,
correlates the key metrics with calories and writes the merged dataset to
CSV. With --charts-dir the study also renders its charts as PNG files.`,
		Example: `  # Run with the configured inputs
  leapflow activity

  # Override inputs and render charts
  leapflow activity --activity-file exports/daily.csv --sleep-file exports/sleep.csv --charts-dir charts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := pipeline.Activity(cmdCtx.Cfg.Activity.PipelineConfig(), cmdCtx.Logger.With("pipeline", "activity"))
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cmdCtx, p, cmdCtx.Cfg.Activity.Output,
				pipeline.TableSummary,
				pipeline.TableUsageShare,
				pipeline.TableActivityShare,
				pipeline.TableCorrelation,
			)
		},
	}

	flags := cmd.Flags()
	flags.String("activity-file", "", "Daily activity CSV export")
	flags.String("sleep-file", "", "Daily sleep CSV export")
	flags.String("csv", "", "Where to write the merged dataset")
	flags.String("charts-dir", "", "Directory for chart PNGs (empty disables charts)")
	config.BindPathFlag(flags, "activity-file", "activity.activity_file")
	config.BindPathFlag(flags, "sleep-file", "activity.sleep_file")
	config.BindPathFlag(flags, "csv", "activity.output")
	config.BindPathFlag(flags, "charts-dir", "activity.charts_dir")

	return cmd
}
