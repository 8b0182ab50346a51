// Package main provides end-to-end tests for the leapflow CLI.
package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/cli"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

const dailyActivityCSV = `Id,ActivityDate,TotalSteps,VeryActiveMinutes,SedentaryMinutes,Calories
1,4/12/2016,12000,30,600,2000
1,4/13/2016,8000,10,700,1800
2,4/12/2016,3000,0,1200,1500
`

const sleepDayCSV = `Id,SleepDay,TotalSleepRecords,TotalMinutesAsleep,TotalTimeInBed
1,4/12/2016 12:00:00 AM,1,420,450
1,4/13/2016 12:00:00 AM,1,380,400
`

const needsCSV = `region_id,region_name,shelter_needed,medical_kits_needed,date_of_assessment
1,North,100,5,2024-01-10
2,South,50,,2024-01-11
`

const logisticsCSV = `region_id,aid_type,delivery_date,quantity_delivered
1,shelter,2024-02-01,40
2,medical,2024-02-02,5
`

const financeCSV = `region_id,sector,allocation_date
2,health,2024-01-05
`

const retailDDL = `
CREATE TABLE products (product_id INTEGER PRIMARY KEY, category TEXT);
CREATE TABLE sales_transactions (
    transaction_id INTEGER PRIMARY KEY,
    product_id INTEGER,
    total_amount REAL,
    transaction_date TEXT
);
INSERT INTO products VALUES (1, 'Electronics'), (2, 'Books');
INSERT INTO sales_transactions VALUES
    (1, 1, 100.0, '2025-01-05'),
    (2, 2, 50.0, '2025-01-02'),
    (3, 1, 999.0, '2024-12-31');
`

// execute runs the CLI in a fresh root command.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// inTempProject moves the test into an empty directory.
func inTempProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	wd, err := os.Getwd()
	require.NoError(t, err)
	return wd
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func decodePipeline(t *testing.T, s string) output.PipelineOutput {
	t.Helper()
	var doc output.PipelineOutput
	require.NoError(t, json.Unmarshal([]byte(s), &doc), "output: %s", s)
	return doc
}

func TestVersionCommand(t *testing.T) {
	inTempProject(t)

	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leapflow v"+cli.Version)
}

func TestHelpCommand(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"activity", "aid", "report", "runs", "config", "init"} {
		assert.Contains(t, out, expected)
	}
}

func TestActivityCommand(t *testing.T) {
	dir := inTempProject(t)
	writeFile(t, filepath.Join(dir, "in", "daily.csv"), dailyActivityCSV)
	writeFile(t, filepath.Join(dir, "in", "sleep.csv"), sleepDayCSV)

	out, _, err := execute(t, "activity",
		"--activity-file", "in/daily.csv",
		"--sleep-file", "in/sleep.csv",
		"--csv", "out/combined.csv",
		"-o", "markdown",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "# activity run ")
	assert.Contains(t, out, "## usage_share")
	assert.Contains(t, out, "## correlation")
	assert.Contains(t, out, "- **Status:** completed")
	assert.FileExists(t, filepath.Join(dir, "out", "combined.csv"))
	assert.FileExists(t, filepath.Join(dir, ".leapflow", "state.db"))
}

func TestInitThenAid(t *testing.T) {
	dir := inTempProject(t)

	_, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "leapflow.yaml"))
	assert.FileExists(t, filepath.Join(dir, "sql", "01_schema_design.sql"))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))

	_, _, err = execute(t, "init")
	require.Error(t, err, "init refuses to overwrite without --force")

	writeFile(t, filepath.Join(dir, "data", "needs_assessment.csv"), needsCSV)
	writeFile(t, filepath.Join(dir, "data", "logistics_delivery.csv"), logisticsCSV)
	writeFile(t, filepath.Join(dir, "data", "financial_tracking.csv"), financeCSV)

	out, _, err := execute(t, "aid", "-o", "json")
	require.NoError(t, err)

	doc := decodePipeline(t, out)
	assert.Equal(t, "aid", doc.Run.Pipeline)
	assert.Equal(t, string(core.RunStatusCompleted), doc.Run.Status)
	require.Len(t, doc.Stages, 5)
	assert.Equal(t, "verify", doc.Stages[4].Stage)
	assert.Equal(t, filepath.Join(dir, "humanitarian_aid_db.sqlite"), doc.Output)
	require.Len(t, doc.Tables["checks"], 2)
	for _, check := range doc.Tables["checks"] {
		assert.EqualValues(t, 1, check["passed"], "check %v", check["check"])
	}
	require.Len(t, doc.Tables["shelter_coverage"], 2)
	assert.Equal(t, "North", doc.Tables["shelter_coverage"][0]["region_name"])

	out, _, err = execute(t, "runs", "-o", "json")
	require.NoError(t, err)
	var runs output.RunsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, doc.Run.ID, runs.Runs[0].ID)

	out, _, err = execute(t, "runs", "show", "aid", "-o", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# aid run "+doc.Run.ID)
	assert.Contains(t, out, "**persist** success")
}

func retailDatabase(t *testing.T, path string) {
	t.Helper()
	ctx := context.Background()
	a := sqlite.New(nil)
	require.NoError(t, a.Connect(ctx, core.AdapterConfig{Path: path}))
	require.NoError(t, a.Exec(ctx, retailDDL))
	require.NoError(t, a.Close())
}

func TestReportCommand(t *testing.T) {
	dir := inTempProject(t)
	retailDatabase(t, filepath.Join(dir, "retail.db"))

	out, _, err := execute(t, "report", "--database", "retail.db", "--csv", "report.csv", "-o", "json")
	require.NoError(t, err)

	doc := decodePipeline(t, out)
	assert.Equal(t, string(core.RunStatusCompleted), doc.Run.Status)
	require.Len(t, doc.Tables["category_revenue"], 2)

	data, err := os.ReadFile(filepath.Join(dir, "report.csv"))
	require.NoError(t, err)
	assert.Equal(t, "category,total_revenue,cumulative_total_sales\nElectronics,100,150\nBooks,50,50\n", string(data))
}

func TestReportCommand_MissingTables(t *testing.T) {
	inTempProject(t)

	out, _, err := execute(t, "report", "--database", "empty.db", "-o", "json")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrQuery)

	doc := decodePipeline(t, out)
	assert.Equal(t, string(core.RunStatusFailed), doc.Run.Status)
	assert.Equal(t, "failed", doc.Stages[0].Status)
}

func TestConfigCommand(t *testing.T) {
	dir := inTempProject(t)
	writeFile(t, filepath.Join(dir, "leapflow.yaml"), "report:\n  since: \"2024-03-01\"\n  target:\n    type: sqlite\n    database: shop.db\n    password: hunter2\n")

	out, _, err := execute(t, "config", "-o", "json")
	require.NoError(t, err)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	report := cfg["report"].(map[string]any)
	assert.Equal(t, "2024-03-01", report["since"])
	target := report["target"].(map[string]any)
	assert.Equal(t, "****", target["password"])
	assert.Equal(t, filepath.Join(dir, "shop.db"), target["database"])
}

func TestInvalidConfig(t *testing.T) {
	inTempProject(t)

	_, _, err := execute(t, "report", "--since", "2025/01/01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.since")
}
