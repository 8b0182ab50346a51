package commands

import (
	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewAidCommand creates the aid command.
func NewAidCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aid",
		Short: "Load the humanitarian aid exports into the warehouse",
		Long: `Load the humanitarian aid exports into the warehouse.

Reads the needs assessment, logistics delivery and financial tracking exports,
fills missing need counts, normalizes categories, derives the Regions
dimension and writes every table to the target database. The schema script,
if configured, is applied first. Afterwards the load is verified and the
shelter coverage per region is reported.

Regions is replaced on every run; the fact tables are appended unless
aid.policies says otherwise.`,
		Example: `  # Load into the configured SQLite warehouse
  leapflow aid

  # Load a different export folder into a scratch database
  leapflow aid --data-dir exports/2025-06 --database scratch.sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logger := cmdCtx.Logger.With("pipeline", "aid")
			target, err := OpenTarget(cmd.Context(), cmdCtx.Cfg.Aid.Target, logger)
			if err != nil {
				return err
			}
			defer func() { _ = target.Close() }()

			p, err := pipeline.Aid(cmdCtx.Cfg.Aid.PipelineConfig(), target, logger)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cmdCtx, p, cmdCtx.Cfg.Aid.Target.Database,
				pipeline.TableWrites,
				pipeline.TableChecks,
				pipeline.TableShelterCoverage,
			)
		},
	}

	flags := cmd.Flags()
	flags.String("data-dir", "", "Directory holding the three aid exports")
	flags.String("schema", "", "Schema script applied before loading")
	flags.String("database", "", "Target database file")
	config.BindPathFlag(flags, "data-dir", "aid.data_dir")
	config.BindPathFlag(flags, "schema", "aid.schema")
	config.BindPathFlag(flags, "database", "aid.target.database")

	return cmd
}
