package table

import (
	"cmp"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the layout used to render midnight timestamps.
const DateLayout = "2006-01-02"

// DateTimeLayout is the layout used to render timestamps with a time of day.
const DateTimeLayout = "2006-01-02 15:04:05"

// Float converts a numeric cell to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Format renders a cell as text. nil renders as the empty string.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(DateTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

// Key renders a tuple of cells as a map key. Kinds are tagged so that the
// string "1" and the integer 1 never collide.
func Key(values ...any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch x := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case int64:
			b.WriteString("i:")
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			b.WriteString("f:")
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case time.Time:
			b.WriteString("t:")
			b.WriteString(x.UTC().Format(time.RFC3339Nano))
		default:
			b.WriteString("s:")
			b.WriteString(Format(x))
		}
	}
	return b.String()
}

// Compare orders two cells: nil sorts first, numbers compare numerically,
// times chronologically and everything else by its text form.
func Compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := Float(a); ok {
		if fb, ok := Float(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(Format(a), Format(b))
}

// CompareTuple orders two equal-length cell tuples lexicographically.
func CompareTuple(a, b []any) int {
	for i := range a {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
