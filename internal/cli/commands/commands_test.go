package commands

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/cli/config"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/cli/testutil"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

func TestPipelineCommands(t *testing.T) {
	tests := []struct {
		name  string
		cmd   *cobra.Command
		use   string
		flags map[string]string
	}{
		{
			name: "activity",
			cmd:  NewActivityCommand(),
			use:  "activity",
			flags: map[string]string{
				"activity-file": "activity.activity_file",
				"sleep-file":    "activity.sleep_file",
				"csv":           "activity.output",
				"charts-dir":    "activity.charts_dir",
			},
		},
		{
			name: "aid",
			cmd:  NewAidCommand(),
			use:  "aid",
			flags: map[string]string{
				"data-dir": "aid.data_dir",
				"schema":   "aid.schema",
				"database": "aid.target.database",
			},
		},
		{
			name: "report",
			cmd:  NewReportCommand(),
			use:  "report",
			flags: map[string]string{
				"since":     "report.since",
				"csv":       "report.output",
				"database":  "report.target.database",
				"tolerance": "report.tolerance",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")

			for name, key := range tt.flags {
				f := tt.cmd.Flags().Lookup(name)
				require.NotNil(t, f, "flag %q should exist", name)
				assert.Equal(t, []string{key}, f.Annotations[config.FlagKeyAnnotation], "flag %q", name)
			}
		})
	}
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("limit"))
	assert.NotNil(t, cmd.Flags().Lookup("pipeline"))

	show, _, err := cmd.Find([]string{"show"})
	require.NoError(t, err)
	assert.Equal(t, "show <run-id|pipeline>", show.Use)
}

// seedRuns records a finished run per pipeline name, oldest first.
func seedRuns(t *testing.T, ledger core.Store, pipelines ...string) []*core.Run {
	t.Helper()
	var runs []*core.Run
	for i, name := range pipelines {
		run, err := ledger.CreateRun(name)
		require.NoError(t, err)
		status := core.RunStatusCompleted
		if i%2 == 1 {
			status = core.RunStatusFailed
		}
		require.NoError(t, ledger.CompleteRun(run.ID, status, ""))
		runs = append(runs, run)
	}
	return runs
}

func TestListRuns(t *testing.T) {
	ledger := testutil.NewTestLedger(t)
	seeded := seedRuns(t, ledger, "aid", "report", "aid", "activity")

	all, err := listRuns(ledger, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, seeded[3].ID, all[0].ID, "newest first")

	aid, err := listRuns(ledger, "aid", 1)
	require.NoError(t, err)
	require.Len(t, aid, 1)
	assert.Equal(t, seeded[2].ID, aid[0].ID)

	none, err := listRuns(ledger, "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindRun(t *testing.T) {
	ledger := testutil.NewTestLedger(t)
	seeded := seedRuns(t, ledger, "aid", "aid")

	run, err := findRun(ledger, seeded[0].ID)
	require.NoError(t, err)
	assert.Equal(t, seeded[0].ID, run.ID)

	run, err = findRun(ledger, "aid")
	require.NoError(t, err)
	assert.Equal(t, seeded[1].ID, run.ID, "pipeline name resolves to its latest run")

	_, err = findRun(ledger, "nope")
	assert.Error(t, err)
}

func TestRenderRuns(t *testing.T) {
	ledger := testutil.NewTestLedger(t)
	seedRuns(t, ledger, "aid", "report")
	runs, err := ledger.ListRuns(10)
	require.NoError(t, err)

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderRuns(tr.Renderer, runs))

		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "# Runs (2)")
		assert.Contains(t, out, "| id | pipeline | status | started | duration | error |")
		assert.Contains(t, out, "| report |")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderRuns(tr.Renderer, runs))

		var doc output.RunsOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &doc))
		require.Len(t, doc.Runs, 2)
		assert.Equal(t, "report", doc.Runs[0].Pipeline)
		assert.Equal(t, "failed", doc.Runs[0].Status)
		assert.NotNil(t, doc.Runs[0].CompletedAt)
	})
}

func TestRenderResult(t *testing.T) {
	ledger := testutil.NewTestLedger(t)

	p, err := pipeline.New("demo", nil,
		pipeline.Stage{Name: "load", Kind: pipeline.KindLoad, Run: func(_ context.Context, in pipeline.Dataset) (pipeline.Dataset, error) {
			numbers := table.New("numbers", "n", "ratio")
			numbers.Append(int64(1), 0.123456)
			return in.With(numbers), nil
		}},
	)
	require.NoError(t, err)
	res, err := p.Run(context.Background(), ledger)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		cmdCtx := &CommandContext{Cfg: config.Default(), Logger: config.GetLogger(context.Background()), Ledger: ledger, Renderer: tr.Renderer}
		require.NoError(t, renderResult(cmdCtx, res, "out.csv", "numbers", "missing"))

		out := tr.Output()
		testutil.AssertNoANSI(t, out)
		assert.Contains(t, out, "demo run "+res.Run.ID)
		assert.Contains(t, out, "✓ load load, 1 rows")
		assert.Contains(t, out, "0.1235")
		assert.Contains(t, out, "Output: out.csv")
		assert.NotContains(t, out, "missing")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		cmdCtx := &CommandContext{Cfg: config.Default(), Logger: config.GetLogger(context.Background()), Ledger: ledger, Renderer: tr.Renderer}
		require.NoError(t, renderResult(cmdCtx, res, "out.csv", "numbers"))

		var doc output.PipelineOutput
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &doc))
		assert.Equal(t, "completed", doc.Run.Status)
		assert.Equal(t, "out.csv", doc.Output)
		require.Len(t, doc.Stages, 1)
		assert.EqualValues(t, 1, doc.Stages[0].RowsOut)
		require.Len(t, doc.Tables["numbers"], 1)
		assert.InDelta(t, 0.123456, doc.Tables["numbers"][0]["ratio"], 1e-9)
	})
}

func TestTruncateOneLine(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"line one\nline two", 20, "line one line two"},
		{"abcdefghijkl", 8, "abcde..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateOneLine(tt.in, tt.max), tt.in)
	}
}

func TestRenderConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Report.Target.Password = "secret"

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderConfig(tr.Renderer, cfg))

		out := tr.Output()
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "```yaml")
		assert.Contains(t, out, "(none, using defaults)")
		assert.Contains(t, out, "password: '****'")
		assert.NotContains(t, out, "secret")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderConfig(tr.Renderer, cfg))

		var doc config.Config
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &doc))
		assert.Equal(t, "****", doc.Report.Target.Password)
		assert.Equal(t, cfg.Report.Since, doc.Report.Since)
	})
}
