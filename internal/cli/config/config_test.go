package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/persist"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
)

// chdirTemp moves the test into a fresh directory and returns its path.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	return cwd
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "leapflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := chdirTemp(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, "data", "dailyActivity_merged.csv"), cfg.Activity.ActivityFile)
	assert.Empty(t, cfg.Activity.ChartsDir)
	assert.Equal(t, "sqlite", cfg.Aid.Target.Type)
	assert.Equal(t, filepath.Join(dir, "humanitarian_aid_db.sqlite"), cfg.Aid.Target.Database)
	assert.Equal(t, pipeline.DefaultAidPolicies(), cfg.Aid.Policies)
	assert.Equal(t, DefaultSince, cfg.Report.Since)
	assert.InDelta(t, pipeline.DefaultTolerance, cfg.Report.Tolerance, 1e-12)
	assert.Equal(t, Default().Activity.ActivityBands, cfg.Activity.ActivityBands)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, `state_path: state/ledger.db
output: json
activity:
  charts_dir: charts
  usage_bands:
    thresholds:
      - {min: 20, label: Regular}
    default: Occasional
aid:
  policies:
    Needs: replace
report:
  since: "2024-06-01"
  tolerance: 0.01
  target:
    type: duckdb
    database: warehouse.duckdb
`)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "leapflow.yaml"), cfg.ConfigFile)
	assert.Equal(t, filepath.Join(dir, "state", "ledger.db"), cfg.StatePath)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, filepath.Join(dir, "charts"), cfg.Activity.ChartsDir)
	assert.Equal(t, BandsConfig{
		Thresholds: []BandConfig{{Min: 20, Label: "Regular"}},
		Default:    "Occasional",
	}, cfg.Activity.UsageBands)

	// Maps merge with the defaults.
	assert.Equal(t, persist.Replace, cfg.Aid.Policies["Needs"])
	assert.Equal(t, persist.Append, cfg.Aid.Policies["Finance"])
	assert.Equal(t, persist.Replace, cfg.Aid.Policies["Regions"])

	assert.Equal(t, "2024-06-01", cfg.Report.Since)
	assert.InDelta(t, 0.01, cfg.Report.Tolerance, 1e-12)
	assert.Equal(t, "duckdb", cfg.Report.Target.Type)
	assert.Equal(t, filepath.Join(dir, "warehouse.duckdb"), cfg.Report.Target.Database)

	rc := cfg.Report.PipelineConfig()
	assert.Equal(t, 2024, rc.Since.Year())
	assert.Equal(t, 6, int(rc.Since.Month()))
}

func TestLoad_PoliciesMergeWithDefaults(t *testing.T) {
	chdirTemp(t)
	writeConfig(t, ".", `
aid:
  policies:
    Logistics: replace
`)

	cfg, err := Load(Options{Overrides: map[string]any{"aid.policies.Finance": "replace"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]persist.Policy{
		"Regions":   persist.Replace,
		"Needs":     persist.Append,
		"Logistics": persist.Replace,
		"Finance":   persist.Replace,
	}, cfg.Aid.Policies)
	assert.Equal(t, persist.Replace, cfg.Redacted().Aid.Policies["Regions"])
}

func TestLoad_UpwardSearch(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "aid:\n  data_dir: exports\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "exports"), cfg.Aid.DataDir)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	chdirTemp(t)

	_, err := Load(Options{ConfigFile: "nope.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoad_Precedence(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "report:\n  since: \"2023-01-01\"\n  output: from_file.csv\n")

	t.Setenv("LEAPFLOW_REPORT__SINCE", "2024-01-01")
	t.Setenv("LEAPFLOW_REPORT__OUTPUT", "from_env.csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("since", "", "cutoff date")
	flags.String("output-file", "", "report file")
	BindFlag(flags, "since", "report.since")
	BindPathFlag(flags, "output-file", "report.output")
	require.NoError(t, flags.Set("output-file", "from_flag.csv"))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)

	// Unset flags fall back to env, set flags win over env.
	assert.Equal(t, "2024-01-01", cfg.Report.Since)
	assert.Equal(t, filepath.Join(dir, "from_flag.csv"), cfg.Report.Output)

	cfg, err = Load(Options{Flags: flags, Overrides: map[string]any{"report.since": "2022-02-02"}})
	require.NoError(t, err)
	assert.Equal(t, "2022-02-02", cfg.Report.Since)
}

func TestLoad_FlagPathsResolveAgainstWorkingDir(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "activity:\n  output: cleaned.csv\n")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0750))
	t.Chdir(sub)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state path")
	flags.String("activity", "", "activity file")
	BindPathFlag(flags, "activity", "activity.activity_file")
	_ = flags.SetAnnotation("state", FlagPathAnnotation, []string{"true"})
	require.NoError(t, flags.Set("state", "local.db"))
	require.NoError(t, flags.Set("activity", "mine.csv"))

	cfg, err := Load(Options{Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(sub, "local.db"), cfg.StatePath)
	assert.Equal(t, filepath.Join(sub, "mine.csv"), cfg.Activity.ActivityFile)
	assert.Equal(t, filepath.Join(dir, "cleaned.csv"), cfg.Activity.Output)
}

func TestLoad_MemoryDatabaseUntouched(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(Options{Overrides: map[string]any{"report.target.database": ":memory:"}})
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Report.Target.Database)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		errSubstr string
	}{
		{
			name:      "bad since",
			overrides: map[string]any{"report.since": "2025/01/01"},
			errSubstr: "report.since",
		},
		{
			name:      "unknown output",
			overrides: map[string]any{"output": "html"},
			errSubstr: "output",
		},
		{
			name:      "unknown target type",
			overrides: map[string]any{"aid.target.type": "mysql"},
			errSubstr: "aid.target.type",
		},
		{
			name:      "postgres without host",
			overrides: map[string]any{"report.target.type": "postgres"},
			errSubstr: "report.target.host",
		},
		{
			name:      "unknown policy",
			overrides: map[string]any{"aid.policies.Needs": "upsert"},
			errSubstr: "upsert",
		},
		{
			name:      "unknown table policy",
			overrides: map[string]any{"aid.policies.Shelters": "append"},
			errSubstr: "aid.policies",
		},
		{
			name:      "empty state path",
			overrides: map[string]any{"state_path": ""},
			errSubstr: "state_path",
		},
		{
			name: "duplicate band threshold",
			overrides: map[string]any{"activity.usage_bands.thresholds": []any{
				map[string]any{"min": 10, "label": "a"},
				map[string]any{"min": 10, "label": "b"},
			}},
			errSubstr: "activity.usage_bands",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			_, err := Load(Options{Overrides: tt.overrides})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestLoad_TargetEnvExpansion(t *testing.T) {
	chdirTemp(t)
	t.Setenv("TEST_PG_HOST", "db.internal")
	t.Setenv("TEST_PG_PASSWORD", "s3cret")

	cfg, err := Load(Options{Overrides: map[string]any{
		"report.target.type":     "postgres",
		"report.target.host":     "${TEST_PG_HOST}",
		"report.target.password": "${TEST_PG_PASSWORD}",
		"report.target.database": "techmart",
		"report.target.port":     "5432",
	}})
	require.NoError(t, err)

	target := cfg.Report.Target
	assert.Equal(t, "db.internal", target.Host)
	assert.Equal(t, "s3cret", target.Password)
	assert.Equal(t, 5432, target.Port)
	// Remote database names are not paths.
	assert.Equal(t, "techmart", target.Database)

	ac := target.AdapterConfig()
	assert.Equal(t, "postgres", ac.Type)
	assert.Equal(t, "db.internal", ac.Host)

	redacted := cfg.Redacted()
	assert.Equal(t, "****", redacted.Report.Target.Password)
	assert.Equal(t, "s3cret", cfg.Report.Target.Password, "original config is untouched")
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestFlagKey(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	flags.Bool("verbose", false, "")
	flags.String("charts-dir", "", "")
	flags.String("data", "", "")
	BindFlag(flags, "data", "aid.data_dir")

	assert.Equal(t, "state_path", flagKey(flags.Lookup("state")))
	assert.Equal(t, "verbose", flagKey(flags.Lookup("verbose")))
	assert.Equal(t, "charts_dir", flagKey(flags.Lookup("charts-dir")))
	assert.Equal(t, "aid.data_dir", flagKey(flags.Lookup("data")))
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "state_path", envKey("LEAPFLOW_STATE_PATH"))
	assert.Equal(t, "aid.target.database", envKey("LEAPFLOW_AID__TARGET__DATABASE"))
}

func TestGetLogger_Fallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)
	logger.Info("discarded")
}
