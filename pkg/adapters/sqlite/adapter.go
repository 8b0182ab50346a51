// Package sqlite provides a SQLite database adapter for leapflow.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "sqlite"
}

// Connect opens the database file, creating it when absent.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", buildDSN(path, cfg.Options))
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDSN writes timestamps in SQLite's sortable text form, sets a busy
// timeout and appends one pragma per option (e.g. journal_mode: wal).
func buildDSN(path string, options map[string]string) string {
	pragmas := []string{"_time_format=sqlite", "_pragma=busy_timeout(5000)"}
	for _, key := range slices.Sorted(maps.Keys(options)) {
		pragmas = append(pragmas, fmt.Sprintf("_pragma=%s(%s)", key, options[key]))
	}
	return path + "?" + strings.Join(pragmas, "&")
}

// GetTableMetadata retrieves metadata for a specified table via PRAGMA table_info.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, adapter.ErrNotConnected
	}

	schema, name := adapter.ParseQualifiedName(table, "main")
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA %s.table_info(%s)", adapter.QuoteIdent(schema), adapter.QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			cid     int
			col     adapter.Column
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0 && pk == 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, core.Errorf(core.ErrSchema, "table metadata", "table %s not found", table)
	}

	return &adapter.Metadata{
		Schema:   schema,
		Name:     name,
		Columns:  columns,
		RowCount: a.CountRows(ctx, adapter.QuoteIdent(schema)+"."+adapter.QuoteIdent(name)),
	}, nil
}

// Placeholder returns the bind marker for the n-th argument.
func (a *Adapter) Placeholder(int) string {
	return "?"
}

// ColumnType maps a cell kind to a SQLite column type.
func (a *Adapter) ColumnType(kind core.ValueKind) string {
	switch kind {
	case core.KindInt:
		return "INTEGER"
	case core.KindFloat:
		return "REAL"
	case core.KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
