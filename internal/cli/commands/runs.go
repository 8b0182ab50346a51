package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/spf13/cobra"
)

const defaultRunsLimit = 20

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int
	var pipelineName string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		Long: `List recent pipeline runs from the run ledger, newest first.

Use 'runs show' to see the stages of a single run.`,
		Example: `  # Last 20 runs
  leapflow runs

  # Last 5 aid runs as JSON
  leapflow runs --pipeline aid --limit 5 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := listRuns(cmdCtx.Ledger, pipelineName, limit)
			if err != nil {
				return err
			}
			return renderRuns(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultRunsLimit, "Maximum number of runs to show")
	cmd.Flags().StringVarP(&pipelineName, "pipeline", "p", "", "Only show runs of this pipeline")
	_ = cmd.RegisterFlagCompletionFunc("pipeline", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"activity", "aid", "report"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newRunsShowCommand())
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id|pipeline>",
		Short: "Show the stages of a run",
		Long: `Show the stages of a run.

The argument is a run ID, or a pipeline name to show that pipeline's latest run.`,
		Example: `  leapflow runs show 0b9c4f0e-5d1e-4d7f-9a41-2f7d0f3f8f21
  leapflow runs show aid`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			run, err := findRun(cmdCtx.Ledger, args[0])
			if err != nil {
				return err
			}
			stages, err := cmdCtx.Ledger.GetStageRunsForRun(run.ID)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(output.PipelineOutput{
					Run:    output.NewRunInfo(run),
					Stages: output.NewStageInfos(stages),
				})
			}

			r.Header(1, fmt.Sprintf("%s run %s", run.Pipeline, run.ID))
			r.KeyValue("Status", string(run.Status))
			r.KeyValue("Started", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
			if run.Error != "" {
				r.KeyValue("Error", run.Error)
			}
			r.Println("")
			renderStages(r, stages)
			return nil
		},
	}
}

// listRuns returns up to limit runs, newest first, optionally for one pipeline.
func listRuns(ledger core.Store, pipelineName string, limit int) ([]*core.Run, error) {
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	fetch := limit
	if pipelineName != "" {
		// The ledger has no pipeline filter; over-fetch and filter here.
		fetch = limit * 10
	}
	runs, err := ledger.ListRuns(fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if pipelineName == "" {
		return runs, nil
	}

	out := make([]*core.Run, 0, limit)
	for _, run := range runs {
		if run.Pipeline == pipelineName {
			out = append(out, run)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// findRun resolves a run ID, falling back to the latest run of a pipeline.
func findRun(ledger core.Store, ref string) (*core.Run, error) {
	run, err := ledger.GetRun(ref)
	if err == nil {
		return run, nil
	}
	latest, latestErr := ledger.GetLatestRun(ref)
	if latestErr != nil {
		return nil, errors.Join(err, latestErr)
	}
	if latest == nil {
		return nil, fmt.Errorf("no run or pipeline named %q", ref)
	}
	return latest, nil
}

func renderRuns(r *output.Renderer, runs []*core.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		doc := output.RunsOutput{Runs: make([]output.RunInfo, 0, len(runs))}
		for _, run := range runs {
			doc.Runs = append(doc.Runs, output.NewRunInfo(run))
		}
		return r.JSON(doc)
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	t := table.New("runs", "id", "pipeline", "status", "started", "duration", "error")
	for _, run := range runs {
		var duration any
		if run.CompletedAt != nil {
			duration = output.FormatDuration(run.CompletedAt.Sub(run.StartedAt))
		}
		var errMsg any
		if run.Error != "" {
			errMsg = truncateOneLine(run.Error, 60)
		}
		t.Append(run.ID, run.Pipeline, string(run.Status), run.StartedAt.Local().Format("2006-01-02 15:04:05"), duration, errMsg)
	}
	r.Table(t)
	return nil
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
