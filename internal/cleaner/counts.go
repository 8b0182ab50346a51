package cleaner

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// FillCounts replaces nulls in each column with 0 and casts every value to
// int64. Integral floats and integer strings are accepted.
func FillCounts(t *table.Table, cols ...string) (*table.Table, error) {
	const op = "fill counts"

	if err := t.Require(op, cols...); err != nil {
		return nil, err
	}
	out := t.Clone()
	for _, j := range out.Indexes(cols...) {
		for i, row := range out.Rows {
			n, err := toCount(row[j])
			if err != nil {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %w", t.Name, i+1, t.Columns[j], err)
			}
			row[j] = n
		}
	}
	return out, nil
}

func toCount(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return x, nil
	case float64:
		if math.IsNaN(x) {
			return 0, nil
		}
		if x != math.Trunc(x) {
			return 0, &strconv.NumError{Func: "count", Num: strconv.FormatFloat(x, 'f', -1, 64), Err: strconv.ErrSyntax}
		}
		return int64(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) {
			return 0, &strconv.NumError{Func: "count", Num: s, Err: strconv.ErrSyntax}
		}
		return int64(f), nil
	default:
		return 0, &strconv.NumError{Func: "count", Num: table.Format(x), Err: strconv.ErrSyntax}
	}
}

// TitleCase title-cases the text cells of each column. Null cells stay null
// and non-text cells are left as they are. Words break on spaces and
// hyphens but not on apostrophes, so "o'brien" becomes "O'brien".
func TitleCase(t *table.Table, cols ...string) (*table.Table, error) {
	if err := t.Require("title case", cols...); err != nil {
		return nil, err
	}
	caser := cases.Title(language.Und)
	out := t.Clone()
	for _, j := range out.Indexes(cols...) {
		for _, row := range out.Rows {
			if s, ok := row[j].(string); ok {
				row[j] = caser.String(strings.TrimSpace(s))
			}
		}
	}
	return out, nil
}
