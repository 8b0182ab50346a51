package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapflow/internal/aggregate"
	"github.com/leapstack-labs/leapflow/internal/cleaner"
	"github.com/leapstack-labs/leapflow/internal/loader"
	"github.com/leapstack-labs/leapflow/internal/persist"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/internal/verify"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Tables produced by the report pipeline.
const (
	TableLineItems          = "line_items"
	TableCategoryRevenue    = "category_revenue"
	TableCategoryRevenueSQL = "category_revenue_sql"
)

// DefaultTolerance is the largest difference accepted between the
// in-memory and SQL revenue figures.
const DefaultTolerance = 0.005

// ReportConfig configures the category revenue report.
type ReportConfig struct {
	Since      time.Time
	OutputPath string
	Tolerance  float64
}

// Report builds the category revenue report: load transactions since the
// cutoff, total revenue per category with a running total, export it to
// CSV and reconcile it against the same report computed by the store.
func Report(cfg ReportConfig, store core.Adapter, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}

	r := &reportStages{cfg: cfg, store: store, logger: logger}
	return New("report", logger,
		Stage{Name: "load", Kind: KindLoad, Run: r.load},
		Stage{Name: "clean", Kind: KindClean, Run: r.clean},
		Stage{Name: "revenue", Kind: KindMerge, Run: r.revenue},
		Stage{Name: "export", Kind: KindPersist, Run: r.export},
		Stage{Name: "reconcile", Kind: KindVerify, Run: r.reconcile},
	)
}

type reportStages struct {
	cfg    ReportConfig
	store  core.Adapter
	logger *slog.Logger
}

// since is bound as a calendar date so text-typed date columns compare
// correctly.
func (r *reportStages) since() string {
	return r.cfg.Since.UTC().Format(table.DateLayout)
}

func (r *reportStages) load(ctx context.Context, in Dataset) (Dataset, error) {
	const op = "load line items"

	rows, err := r.store.Query(ctx, verify.CategoryLineItemsSQL(r.store.Placeholder(1)), r.since())
	if err != nil {
		return Dataset{}, core.Wrap(core.ErrQuery, op, err)
	}
	items, err := loader.FromRows(TableLineItems, rows)
	if err != nil {
		return Dataset{}, err
	}
	if err := items.Require(op, "category", "total_amount", "transaction_date"); err != nil {
		return Dataset{}, err
	}
	r.logger.Info("loaded transactions", "rows", items.Len(), "since", r.since())
	return in.With(items), nil
}

func (r *reportStages) clean(_ context.Context, in Dataset) (Dataset, error) {
	items, err := in.Table("clean", TableLineItems)
	if err != nil {
		return Dataset{}, err
	}
	items, err = cleaner.ParseDates(items, "transaction_date", "")
	if err != nil {
		return Dataset{}, err
	}
	return in.With(items), nil
}

func (r *reportStages) revenue(_ context.Context, in Dataset) (Dataset, error) {
	items, err := in.Table("revenue", TableLineItems)
	if err != nil {
		return Dataset{}, err
	}
	report, err := aggregate.RunningTotal(items, "category", "total_amount", "transaction_date")
	if err != nil {
		return Dataset{}, err
	}
	return in.With(report.WithName(TableCategoryRevenue)), nil
}

func (r *reportStages) export(_ context.Context, in Dataset) (Dataset, error) {
	report, err := in.Table("export", TableCategoryRevenue)
	if err != nil {
		return Dataset{}, err
	}
	if err := persist.WriteCSV(report, r.cfg.OutputPath); err != nil {
		return Dataset{}, err
	}
	r.logger.Info("report exported", "path", r.cfg.OutputPath, "categories", report.Len())
	return in, nil
}

func (r *reportStages) reconcile(ctx context.Context, in Dataset) (Dataset, error) {
	report, err := in.Table("reconcile", TableCategoryRevenue)
	if err != nil {
		return Dataset{}, err
	}
	fromSQL, err := verify.Query(ctx, r.store, TableCategoryRevenueSQL,
		verify.CategoryRevenueSQL(r.store.Placeholder(1)), r.since())
	if err != nil {
		return Dataset{}, err
	}

	check, err := verify.Reconcile("category revenue", report, fromSQL, "category",
		[]string{aggregate.TotalColumn, aggregate.CumulativeColumn}, r.cfg.Tolerance)
	if err != nil {
		return Dataset{}, err
	}
	r.logger.Info("reconciliation", "check", check.Name, "matched", check.Matched, "total", check.Total, "passed", check.Passed)

	out := in.With(fromSQL, verify.ChecksTable(TableChecks, check))
	return out, verify.Failed(check)
}
