package cleaner

import (
	"strings"
	"time"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// ActivityDateLayout is the month/day/year layout of fitness tracker exports.
const ActivityDateLayout = "1/2/2006"

// generalLayouts are tried in order when no explicit layout is given.
var generalLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDates converts col to calendar dates. Strings are parsed with layout,
// or with a list of common layouts when layout is empty; time values pass
// through. The time of day is discarded and every result is midnight UTC.
// The first unparsable cell aborts with a parse error naming its row.
func ParseDates(t *table.Table, col, layout string) (*table.Table, error) {
	const op = "parse dates"

	j := t.Index(col)
	if j < 0 {
		return nil, core.Errorf(core.ErrSchema, op, "table %q has no column %q", t.Name, col)
	}

	out := t.Clone()
	for i, row := range out.Rows {
		switch v := row[j].(type) {
		case nil:
		case time.Time:
			row[j] = Truncate(v)
		case string:
			d, err := ParseDate(v, layout)
			if err != nil {
				return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %w", t.Name, i+1, col, err)
			}
			row[j] = d
		default:
			return nil, core.Errorf(core.ErrParse, op, "table %q row %d column %q: %v is not a date", t.Name, i+1, col, v)
		}
	}
	return out, nil
}

// ParseDate parses s with layout (or the general layouts when empty) and
// truncates the result to midnight UTC.
func ParseDate(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		d, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, err
		}
		return Truncate(d), nil
	}
	for _, l := range generalLayouts {
		if d, err := time.Parse(l, s); err == nil {
			return Truncate(d), nil
		}
	}
	return time.Time{}, &time.ParseError{Value: s, Message: ": unrecognized date format"}
}

// Truncate drops the time of day, keeping the calendar date in UTC.
func Truncate(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
