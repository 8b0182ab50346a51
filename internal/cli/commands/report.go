package commands

import (
	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the category revenue report",
		Long: `Write the category revenue report.

Totals revenue per product category for every transaction on or after the
cutoff date, adds a running total and writes the result to CSV. The report is
then reconciled against the same figures computed by the database.`,
		Example: `  # Report on the configured retail database
  leapflow report

  # Report since mid-year as JSON
  leapflow report --since 2025-07-01 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := cmdCtx.Logger.With("pipeline", "report")
			target, err := OpenTarget(cmd.Context(), cmdCtx.Cfg.Report.Target, logger)
			if err != nil {
				return err
			}
			defer func() { _ = target.Close() }()

			p, err := pipeline.Report(cmdCtx.Cfg.Report.PipelineConfig(), target, logger)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cmdCtx, p, cmdCtx.Cfg.Report.Output,
				pipeline.TableCategoryRevenue,
				pipeline.TableChecks,
			)
		},
	}

	flags := cmd.Flags()
	flags.String("since", "", "Earliest transaction date (YYYY-MM-DD)")
	flags.String("csv", "", "Where to write the report")
	flags.String("database", "", "Retail database file")
	flags.Float64("tolerance", 0, "Largest accepted difference between the report and the database")
	config.BindFlag(flags, "since", "report.since")
	config.BindPathFlag(flags, "csv", "report.output")
	config.BindPathFlag(flags, "database", "report.target.database")
	config.BindFlag(flags, "tolerance", "report.tolerance")

	return cmd
}
