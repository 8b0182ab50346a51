package aggregate

import (
	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// BuildDimension derives a dimension table named name with one row per
// distinct non-null key across sources, in order of first appearance. Each
// attribute comes from the first source (in argument order, then row order)
// that supplies a non-null value for that key; sources lacking an attribute
// column are skipped for it.
func BuildDimension(name, key string, attrs []string, sources ...*table.Table) (*table.Table, error) {
	const op = "build dimension"

	if len(sources) == 0 {
		return nil, core.Errorf(core.ErrSchema, op, "%s: no source tables", name)
	}
	for _, s := range sources {
		if err := s.Require(op, key); err != nil {
			return nil, err
		}
	}

	out := table.New(name, append([]string{key}, attrs...)...)
	rowOf := make(map[string][]any)
	for _, s := range sources {
		kj := s.Index(key)
		aidx := s.Indexes(attrs...)
		for _, row := range s.Rows {
			k := row[kj]
			if k == nil {
				continue
			}
			ks := table.Key(k)
			r, ok := rowOf[ks]
			if !ok {
				r = make([]any, len(attrs)+1)
				r[0] = k
				rowOf[ks] = r
				out.Rows = append(out.Rows, r)
			}
			for a, j := range aidx {
				if j >= 0 && r[a+1] == nil && row[j] != nil {
					r[a+1] = row[j]
				}
			}
		}
	}
	return out, nil
}
