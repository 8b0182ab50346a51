package core

import "time"

// ValueKind classifies a record table cell.
type ValueKind int

// Cell kinds. A cell is nil, int64, float64, string or time.Time.
const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindString
	KindTime
)

// String returns the lowercase kind name.
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// KindOfValue reports the kind of a cell value. Values outside the cell
// domain report KindString since they are rendered through fmt.
func KindOfValue(v any) ValueKind {
	switch v.(type) {
	case nil:
		return KindNull
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case time.Time:
		return KindTime
	default:
		return KindString
	}
}
