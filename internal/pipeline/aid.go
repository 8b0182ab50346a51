package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/leapstack-labs/leapflow/internal/aggregate"
	"github.com/leapstack-labs/leapflow/internal/cleaner"
	"github.com/leapstack-labs/leapflow/internal/loader"
	"github.com/leapstack-labs/leapflow/internal/persist"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/internal/verify"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Destination tables of the aid pipeline, in load order.
const (
	TableRegions   = "Regions"
	TableNeeds     = "Needs"
	TableLogistics = "Logistics"
	TableFinance   = "Finance"
)

// Report tables of the aid pipeline.
const (
	TableWrites          = "writes"
	TableChecks          = "checks"
	TableShelterCoverage = "shelter_coverage"
)

// AidSource binds an input CSV to its destination table.
type AidSource struct {
	File    string
	Table   string
	Columns []string
}

// AidSources lists the aid inputs and the columns each must carry.
var AidSources = []AidSource{
	{File: "needs_assessment.csv", Table: TableNeeds, Columns: []string{"region_id", "region_name", "shelter_needed", "medical_kits_needed", "date_of_assessment"}},
	{File: "logistics_delivery.csv", Table: TableLogistics, Columns: []string{"region_id", "aid_type", "delivery_date", "quantity_delivered"}},
	{File: "financial_tracking.csv", Table: TableFinance, Columns: []string{"region_id", "sector", "allocation_date"}},
}

// DefaultAidPolicies replaces the derived dimension and appends the facts.
func DefaultAidPolicies() map[string]persist.Policy {
	return map[string]persist.Policy{
		TableRegions:   persist.Replace,
		TableNeeds:     persist.Append,
		TableLogistics: persist.Append,
		TableFinance:   persist.Append,
	}
}

// AidConfig configures the humanitarian aid ETL.
type AidConfig struct {
	DataDir    string
	SchemaPath string
	Policies   map[string]persist.Policy
}

// Aid builds the humanitarian aid ETL: load the needs, logistics and
// finance exports, fill need counts and normalize categories, derive the
// Regions dimension, apply the schema script and write every table to the
// store, then verify the cleaned counts and run the shelter coverage KPI.
func Aid(cfg AidConfig, store core.Adapter, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	policies := DefaultAidPolicies()
	for dest, p := range cfg.Policies {
		policies[dest] = p
	}

	a := &aidStages{cfg: cfg, policies: policies, store: store, logger: logger}
	return New("aid", logger,
		Stage{Name: "load", Kind: KindLoad, Run: a.load},
		Stage{Name: "clean", Kind: KindClean, Run: a.clean},
		Stage{Name: "regions", Kind: KindMerge, Run: a.regions},
		Stage{Name: "persist", Kind: KindPersist, Run: a.persist},
		Stage{Name: "verify", Kind: KindVerify, Run: a.verify},
	)
}

type aidStages struct {
	cfg      AidConfig
	policies map[string]persist.Policy
	store    core.Adapter
	logger   *slog.Logger
}

func (a *aidStages) load(_ context.Context, in Dataset) (Dataset, error) {
	out := in
	for _, src := range AidSources {
		t, err := loader.ReadCSV(filepath.Join(a.cfg.DataDir, src.File), src.Columns...)
		if err != nil {
			return Dataset{}, err
		}
		out = out.With(t.WithName(src.Table))
	}
	return out, nil
}

func (a *aidStages) clean(_ context.Context, in Dataset) (Dataset, error) {
	needs, err := in.Table("clean", TableNeeds)
	if err != nil {
		return Dataset{}, err
	}
	logistics, err := in.Table("clean", TableLogistics)
	if err != nil {
		return Dataset{}, err
	}
	finance, err := in.Table("clean", TableFinance)
	if err != nil {
		return Dataset{}, err
	}

	// A missing need record means nothing is needed.
	if needs, err = cleaner.FillCounts(needs, "shelter_needed", "medical_kits_needed"); err != nil {
		return Dataset{}, err
	}
	if needs, err = cleaner.ParseDates(needs, "date_of_assessment", ""); err != nil {
		return Dataset{}, err
	}
	a.logger.Info("needs data cleaned", "rows", needs.Len())

	if logistics, err = cleaner.TitleCase(logistics, "aid_type"); err != nil {
		return Dataset{}, err
	}
	if logistics, err = cleaner.ParseDates(logistics, "delivery_date", ""); err != nil {
		return Dataset{}, err
	}
	a.logger.Info("logistics data cleaned", "rows", logistics.Len())

	if finance, err = cleaner.TitleCase(finance, "sector"); err != nil {
		return Dataset{}, err
	}
	if finance, err = cleaner.ParseDates(finance, "allocation_date", ""); err != nil {
		return Dataset{}, err
	}
	a.logger.Info("finance data cleaned", "rows", finance.Len())

	return in.With(needs, logistics, finance), nil
}

func (a *aidStages) regions(_ context.Context, in Dataset) (Dataset, error) {
	var sources []*table.Table
	for _, name := range []string{TableNeeds, TableLogistics, TableFinance} {
		t, err := in.Table("regions", name)
		if err != nil {
			return Dataset{}, err
		}
		sources = append(sources, t)
	}
	needs := sources[0]

	regions, err := aggregate.BuildDimension(TableRegions, "region_id", []string{"region_name"}, sources...)
	if err != nil {
		return Dataset{}, err
	}
	a.logger.Info("built regions dimension", "regions", regions.Len())

	// region_name lives on the dimension only.
	return in.With(regions, cleaner.Drop(needs, "region_name")), nil
}

func (a *aidStages) persist(ctx context.Context, in Dataset) (Dataset, error) {
	if a.cfg.SchemaPath != "" {
		if err := persist.ApplySchema(ctx, a.store, a.cfg.SchemaPath); err != nil {
			return Dataset{}, err
		}
		a.logger.Info("schema applied", "path", a.cfg.SchemaPath)
	}

	w := persist.NewWriter(a.store, a.logger)
	writes := table.New(TableWrites, "table", "policy", "rows")
	for _, dest := range []string{TableRegions, TableNeeds, TableLogistics, TableFinance} {
		t, err := in.Table("persist", dest)
		if err != nil {
			return Dataset{}, err
		}
		policy := a.policies[dest]
		n, err := w.Write(ctx, t, dest, policy)
		if err != nil {
			return Dataset{}, err
		}
		writes.Append(dest, string(policy), n)
	}
	return in.With(writes), nil
}

func (a *aidStages) verify(ctx context.Context, in Dataset) (Dataset, error) {
	var checks []verify.Check
	for _, col := range []string{"medical_kits_needed", "shelter_needed"} {
		c, err := verify.NonNull(ctx, a.store, TableNeeds, col)
		if err != nil {
			return Dataset{}, err
		}
		a.logger.Info("verification", "check", c.Name, "total", c.Total, "non_null", c.Matched, "passed", c.Passed)
		checks = append(checks, c)
	}

	coverage, err := verify.Query(ctx, a.store, TableShelterCoverage, verify.ShelterCoverageSQL)
	if err != nil {
		return Dataset{}, err
	}

	out := in.With(verify.ChecksTable(TableChecks, checks...), coverage)
	return out, verify.Failed(checks...)
}
