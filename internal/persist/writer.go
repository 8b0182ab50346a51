// Package persist writes record tables to relational stores and files and
// reads them back.
package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Writer writes tables through a connected store adapter.
type Writer struct {
	adapter core.Adapter
	logger  *slog.Logger
}

// NewWriter creates a Writer. If logger is nil, a discard logger is used.
func NewWriter(a core.Adapter, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Writer{adapter: a, logger: logger}
}

// Write stores t in the destination table dest according to policy and
// returns the number of rows inserted. Each call runs in its own
// transaction: a failed write leaves earlier writes in place and rolls
// back its own changes.
func (w *Writer) Write(ctx context.Context, t *table.Table, dest string, policy Policy) (int64, error) {
	const op = "write"

	var ddl []string
	switch policy {
	case Replace:
		ddl = []string{
			"DROP TABLE IF EXISTS " + adapter.QuoteIdent(dest),
			w.createTableSQL(t, dest),
		}
	case Append:
		if err := w.checkAppend(ctx, t, dest); err != nil {
			return 0, err
		}
	default:
		return 0, core.Errorf(core.ErrWrite, op, "%s: unknown write policy %q", dest, policy)
	}

	tx, err := w.adapter.BeginTx(ctx, nil)
	if err != nil {
		return 0, core.Wrap(core.ErrWrite, op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, core.Wrap(core.ErrWrite, op, fmt.Errorf("%s: %w", dest, err))
		}
	}

	n, err := w.insert(ctx, tx, t, dest)
	if err != nil {
		return 0, core.Wrap(core.ErrWrite, op, fmt.Errorf("%s: %w", dest, err))
	}
	if err := tx.Commit(); err != nil {
		return 0, core.Wrap(core.ErrWrite, op, fmt.Errorf("%s: commit: %w", dest, err))
	}

	w.logger.Debug("table written",
		slog.String("table", dest),
		slog.String("policy", string(policy)),
		slog.Int64("rows", n))
	return n, nil
}

func (w *Writer) checkAppend(ctx context.Context, t *table.Table, dest string) error {
	const op = "write"

	meta, err := w.adapter.GetTableMetadata(ctx, dest)
	if errors.Is(err, core.ErrSchema) {
		return core.Errorf(core.ErrWrite, op, "%s: append requires an existing table", dest)
	}
	if err != nil {
		return core.Wrap(core.ErrWrite, op, err)
	}
	var missing []string
	for _, c := range t.Columns {
		if !meta.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return core.Errorf(core.ErrWrite, op, "%s: destination has no column(s) %s", dest, strings.Join(missing, ", "))
	}
	return nil
}

func (w *Writer) createTableSQL(t *table.Table, dest string) string {
	kinds := t.Kinds()
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = adapter.QuoteIdent(c) + " " + w.adapter.ColumnType(kinds[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", adapter.QuoteIdent(dest), strings.Join(defs, ", "))
}

func (w *Writer) insertSQL(t *table.Table, dest string) string {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = adapter.QuoteIdent(c)
		marks[i] = w.adapter.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		adapter.QuoteIdent(dest), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func (w *Writer) insert(ctx context.Context, tx *sql.Tx, t *table.Table, dest string) (int64, error) {
	if t.Len() == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, w.insertSQL(t, dest))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, fmt.Errorf("row %d: %w", i+1, err)
		}
		n++
	}
	return n, nil
}
