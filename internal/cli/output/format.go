package output

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// displayPlaces is the number of decimals shown for float cells.
const displayPlaces = 4

var numbers = message.NewPrinter(language.English)

// FormatHeader returns a markdown header of the given level.
func FormatHeader(level int, text string) string {
	level = max(1, min(level, 6))
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue returns a markdown list item for a key and value.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s:** %s", key, value)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return numbers.Sprintf("%d", n)
}

// FormatDuration renders a duration rounded for display.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

// FormatCell renders a table cell for display. Floats are rounded, nil is
// shown as an empty string.
func FormatCell(v any) string {
	x, ok := v.(float64)
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return table.Format(v)
	}
	return decimal.NewFromFloat(x).Round(displayPlaces).String()
}
