// Package verify runs read-only checks and report queries against a
// persisted store.
package verify

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/loader"
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Querier runs read-only SQL. core.Adapter satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)
}

// DB adapts a *sql.DB to Querier.
type DB struct {
	*sql.DB
}

// Query runs sqlStr with args.
func (d DB) Query(ctx context.Context, sqlStr string, args ...any) (*sql.Rows, error) {
	return d.QueryContext(ctx, sqlStr, args...) //nolint:rowserrcheck // caller iterates
}

// Check is the outcome of one verification: how many of Total items
// satisfied it.
type Check struct {
	Name    string `json:"name"`
	Total   int64  `json:"total"`
	Matched int64  `json:"matched"`
	Passed  bool   `json:"passed"`
	Detail  string `json:"detail,omitempty"`
}

func (c Check) String() string {
	status := "PASS"
	if !c.Passed {
		status = "FAIL"
	}
	s := fmt.Sprintf("%s %s (%d/%d)", status, c.Name, c.Matched, c.Total)
	if c.Detail != "" {
		s += ": " + c.Detail
	}
	return s
}

// NonNull checks that every row of tableName has a non-null column value.
func NonNull(ctx context.Context, q Querier, tableName, column string) (Check, error) {
	const op = "verify non-null"

	stmt := fmt.Sprintf("SELECT COUNT(*) AS total_rows, COUNT(%s) AS non_null_rows FROM %s",
		adapter.QuoteIdent(column), adapter.QuoteIdent(tableName))
	res, err := Query(ctx, q, op, stmt)
	if err != nil {
		return Check{}, err
	}
	if res.Len() != 1 {
		return Check{}, core.Errorf(core.ErrQuery, op, "expected one row, got %d", res.Len())
	}

	total, _ := table.Float(res.Rows[0][0])
	nonNull, _ := table.Float(res.Rows[0][1])
	return Check{
		Name:    tableName + "." + column + " non-null",
		Total:   int64(total),
		Matched: int64(nonNull),
		Passed:  total == nonNull,
	}, nil
}

// Query runs a read-only statement and materializes the result as a table
// named name.
func Query(ctx context.Context, q Querier, name, stmt string, args ...any) (*table.Table, error) {
	rows, err := q.Query(ctx, stmt, args...)
	if err != nil {
		return nil, core.Wrap(core.ErrQuery, name, err)
	}
	t, err := loader.FromRows(name, rows)
	if err != nil {
		return nil, core.Wrap(core.ErrQuery, name, err)
	}
	return t, nil
}

// Reconcile compares cols of two aggregates keyed by key. Every key must be
// present on both sides and every value must agree within tol.
func Reconcile(name string, want, got *table.Table, key string, cols []string, tol float64) (Check, error) {
	const op = "reconcile"

	for _, t := range []*table.Table{want, got} {
		if err := t.Require(op, append([]string{key}, cols...)...); err != nil {
			return Check{}, err
		}
	}

	index := func(t *table.Table) map[string][]any {
		m := make(map[string][]any, t.Len())
		kj := t.Index(key)
		for _, row := range t.Rows {
			m[table.Key(row[kj])] = row
		}
		return m
	}
	gotRows := index(got)
	seen := make(map[string]bool, want.Len())

	check := Check{Name: name}
	var problems []string
	wk := want.Index(key)
	for _, row := range want.Rows {
		ks := table.Key(row[wk])
		seen[ks] = true
		check.Total++
		other, ok := gotRows[ks]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s missing", table.Format(row[wk])))
			continue
		}
		if diff := compareCols(want, got, row, other, cols, tol); diff != "" {
			problems = append(problems, fmt.Sprintf("%s %s", table.Format(row[wk]), diff))
			continue
		}
		check.Matched++
	}
	gk := got.Index(key)
	for _, row := range got.Rows {
		if !seen[table.Key(row[gk])] {
			check.Total++
			problems = append(problems, fmt.Sprintf("%s unexpected", table.Format(row[gk])))
		}
	}

	check.Passed = check.Matched == check.Total
	check.Detail = strings.Join(problems, "; ")
	return check, nil
}

func compareCols(want, got *table.Table, a, b []any, cols []string, tol float64) string {
	for _, c := range cols {
		av, bv := a[want.Index(c)], b[got.Index(c)]
		af, aok := table.Float(av)
		bf, bok := table.Float(bv)
		switch {
		case aok && bok:
			if math.Abs(af-bf) > tol {
				return fmt.Sprintf("%s %v != %v", c, af, bf)
			}
		case table.Compare(av, bv) != 0:
			return fmt.Sprintf("%s %s != %s", c, table.Format(av), table.Format(bv))
		}
	}
	return ""
}

// ChecksColumns are the columns of the table built by ChecksTable.
var ChecksColumns = []string{"check", "total", "matched", "passed", "detail"}

// ChecksTable renders checks as a table so they can travel with the rest of
// a run's output.
func ChecksTable(name string, checks ...Check) *table.Table {
	t := table.New(name, ChecksColumns...)
	for _, c := range checks {
		passed := int64(0)
		if c.Passed {
			passed = 1
		}
		var detail any
		if c.Detail != "" {
			detail = c.Detail
		}
		t.Append(c.Name, c.Total, c.Matched, passed, detail)
	}
	return t
}

// Failed returns a core.ErrVerification error naming every failed check,
// or nil when all passed.
func Failed(checks ...Check) error {
	var names []string
	for _, c := range checks {
		if !c.Passed {
			names = append(names, c.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	return core.Errorf(core.ErrVerification, "verify", "%d check(s) failed: %s", len(names), strings.Join(names, ", "))
}
