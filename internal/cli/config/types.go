// Package config provides configuration management for the leapflow CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/leapflow/internal/aggregate"
	"github.com/leapstack-labs/leapflow/internal/persist"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	StatePath    string         `koanf:"state_path" json:"state_path" yaml:"state_path" validate:"required"`
	Verbose      bool           `koanf:"verbose" json:"verbose" yaml:"verbose"`
	OutputFormat string         `koanf:"output" json:"output" yaml:"output" validate:"oneof=auto text markdown json"`
	Activity     ActivityConfig `koanf:"activity" json:"activity" yaml:"activity"`
	Aid          AidConfig      `koanf:"aid" json:"aid" yaml:"aid"`
	Report       ReportConfig   `koanf:"report" json:"report" yaml:"report"`

	// ProjectRoot anchors relative paths. ConfigFile is the file that was
	// loaded, if any.
	ProjectRoot string `koanf:"-" json:"project_root,omitempty" yaml:"-"`
	ConfigFile  string `koanf:"-" json:"config_file,omitempty" yaml:"-"`
}

// ActivityConfig configures the fitness tracker usage study.
type ActivityConfig struct {
	ActivityFile  string      `koanf:"activity_file" json:"activity_file" yaml:"activity_file" validate:"required"`
	SleepFile     string      `koanf:"sleep_file" json:"sleep_file" yaml:"sleep_file" validate:"required"`
	Output        string      `koanf:"output" json:"output" yaml:"output" validate:"required"`
	ChartsDir     string      `koanf:"charts_dir" json:"charts_dir,omitempty" yaml:"charts_dir,omitempty"`
	ActivityBands BandsConfig `koanf:"activity_bands" json:"activity_bands" yaml:"activity_bands"`
	UsageBands    BandsConfig `koanf:"usage_bands" json:"usage_bands" yaml:"usage_bands"`
}

// BandsConfig is a threshold labelling. Values at or above a threshold's
// min get its label; values below every threshold get the default.
type BandsConfig struct {
	Thresholds []BandConfig `koanf:"thresholds" json:"thresholds" yaml:"thresholds" validate:"dive"`
	Default    string       `koanf:"default" json:"default" yaml:"default" validate:"required"`
}

// BandConfig is one threshold of a BandsConfig.
type BandConfig struct {
	Min   float64 `koanf:"min" json:"min" yaml:"min"`
	Label string  `koanf:"label" json:"label" yaml:"label" validate:"required"`
}

// AidConfig configures the humanitarian aid ETL.
type AidConfig struct {
	DataDir  string                    `koanf:"data_dir" json:"data_dir" yaml:"data_dir" validate:"required"`
	Schema   string                    `koanf:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
	Target   TargetConfig              `koanf:"target" json:"target" yaml:"target"`
	Policies map[string]persist.Policy `koanf:"policies" json:"policies" yaml:"policies" validate:"dive,keys,oneof=Regions Needs Logistics Finance,endkeys,oneof=replace append"`
}

// ReportConfig configures the category revenue report.
type ReportConfig struct {
	Target    TargetConfig `koanf:"target" json:"target" yaml:"target"`
	Since     string       `koanf:"since" json:"since" yaml:"since" validate:"required,datetime=2006-01-02"`
	Output    string       `koanf:"output" json:"output" yaml:"output" validate:"required"`
	Tolerance float64      `koanf:"tolerance" json:"tolerance" yaml:"tolerance" validate:"gt=0"`
}

// TargetConfig selects and configures the SQL store a pipeline talks to.
type TargetConfig struct {
	Type     string            `koanf:"type" json:"type" yaml:"type" validate:"required,oneof=sqlite duckdb postgres"`
	Database string            `koanf:"database" json:"database,omitempty" yaml:"database,omitempty"`
	Host     string            `koanf:"host" json:"host,omitempty" yaml:"host,omitempty" validate:"required_if=Type postgres"`
	Port     int               `koanf:"port" json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	User     string            `koanf:"user" json:"user,omitempty" yaml:"user,omitempty"`
	Password string            `koanf:"password" json:"password,omitempty" yaml:"password,omitempty"`
	Schema   string            `koanf:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
	Options  map[string]string `koanf:"options" json:"options,omitempty" yaml:"options,omitempty"`
}

// Default configuration values.
const (
	DefaultStateFile = ".leapflow/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultSince     = "2025-01-01"
)

// Default returns the built-in configuration. It mirrors the file layout of
// the original study folders.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		OutputFormat: DefaultOutput,
		Activity: ActivityConfig{
			ActivityFile:  "data/dailyActivity_merged.csv",
			SleepFile:     "data/sleepDay_merged.csv",
			Output:        "combined_bellabeat_data_cleaned.csv",
			ActivityBands: bandsConfig(aggregate.ActivityBands()),
			UsageBands:    bandsConfig(aggregate.UsageBands()),
		},
		Aid: AidConfig{
			DataDir:  "data",
			Schema:   "sql/01_schema_design.sql",
			Target:   TargetConfig{Type: "sqlite", Database: "humanitarian_aid_db.sqlite"},
			Policies: pipeline.DefaultAidPolicies(),
		},
		Report: ReportConfig{
			Target:    TargetConfig{Type: "sqlite", Database: "techmart_capstone.db"},
			Since:     DefaultSince,
			Output:    "category_sales_report_2025.csv",
			Tolerance: pipeline.DefaultTolerance,
		},
	}
}

func bandsConfig(b aggregate.Bands) BandsConfig {
	out := BandsConfig{Default: b.Default}
	for _, t := range b.Thresholds {
		out.Thresholds = append(out.Thresholds, BandConfig{Min: t.Min, Label: t.Label})
	}
	return out
}

// Bands converts the configuration to threshold bands.
func (b BandsConfig) Bands() aggregate.Bands {
	out := aggregate.Bands{Default: b.Default}
	for _, t := range b.Thresholds {
		out.Thresholds = append(out.Thresholds, aggregate.Band{Min: t.Min, Label: t.Label})
	}
	return out
}

// AdapterConfig converts the target to an adapter configuration.
func (t TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
	}
}

// PipelineConfig builds the activity pipeline configuration.
func (a ActivityConfig) PipelineConfig() pipeline.ActivityConfig {
	return pipeline.ActivityConfig{
		ActivityPath:  a.ActivityFile,
		SleepPath:     a.SleepFile,
		OutputPath:    a.Output,
		ChartsDir:     a.ChartsDir,
		ActivityBands: a.ActivityBands.Bands(),
		UsageBands:    a.UsageBands.Bands(),
	}
}

// PipelineConfig builds the aid pipeline configuration.
func (a AidConfig) PipelineConfig() pipeline.AidConfig {
	return pipeline.AidConfig{
		DataDir:    a.DataDir,
		SchemaPath: a.Schema,
		Policies:   a.Policies,
	}
}

// PipelineConfig builds the report pipeline configuration. Since has been
// validated by Load.
func (r ReportConfig) PipelineConfig() pipeline.ReportConfig {
	since, _ := time.Parse(time.DateOnly, r.Since)
	return pipeline.ReportConfig{
		Since:      since,
		OutputPath: r.Output,
		Tolerance:  r.Tolerance,
	}
}
