package loader

import (
	"database/sql"
	"time"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// FromRows materializes a query result into a table and closes rows.
// Driver values are normalized to the table cell domain.
func FromRows(name string, rows *sql.Rows) (*table.Table, error) {
	const op = "read rows"
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, core.Wrap(core.ErrQuery, op, err)
	}

	t := table.New(name, cols...)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, core.Wrap(core.ErrQuery, op, err)
		}
		for i, v := range values {
			values[i] = Normalize(v)
		}
		t.Rows = append(t.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, core.Wrap(core.ErrQuery, op, err)
	}
	return t, nil
}

// Normalize converts a driver value to a table cell.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case interface{ Float64() float64 }:
		return x.Float64()
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		if err != nil {
			return nil
		}
		return f
	default:
		return table.Format(x)
	}
}
