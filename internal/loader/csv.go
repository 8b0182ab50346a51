// Package loader turns external inputs (CSV files and SQL result sets) into
// record tables.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/internal/table"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// ReadCSV loads a CSV file with a header row into a table named after the
// file (without extension). Every column in expected must be present in the
// header.
func ReadCSV(path string, expected ...string) (*table.Table, error) {
	const op = "read csv"

	f, err := os.Open(path)
	if err != nil {
		return nil, core.Wrap(core.ErrLoad, op, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, err := Parse(name, f)
	if err != nil {
		return nil, err
	}
	if err := t.Require(op, expected...); err != nil {
		return nil, err
	}
	return t, nil
}

// Parse reads CSV from r and infers a cell type per column.
func Parse(name string, r io.Reader) (*table.Table, error) {
	const op = "read csv"

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.Errorf(core.ErrLoad, op, "%s: empty file", name)
	}
	if err != nil {
		return nil, core.Wrap(core.ErrLoad, op, fmt.Errorf("%s: %w", name, err))
	}
	header = stripHeaderBOM(header)
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, core.Wrap(core.ErrLoad, op, fmt.Errorf("%s: %w", name, err))
	}

	t := table.New(name, header...)
	t.Rows = make([][]any, len(records))
	for i := range records {
		t.Rows[i] = make([]any, len(header))
	}
	for j := range header {
		convert := inferColumn(records, j)
		for i, rec := range records {
			t.Rows[i][j] = convert(strings.TrimSpace(rec[j]))
		}
	}
	return t, nil
}

func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}

// inferColumn picks the narrowest kind that fits every non-empty cell of
// column j: int64, then float64, then string.
func inferColumn(records [][]string, j int) func(string) any {
	isInt, isFloat := true, true
	for _, rec := range records {
		s := strings.TrimSpace(rec[j])
		if s == "" {
			continue
		}
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if !isInt && isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
				break
			}
		}
	}

	switch {
	case isInt:
		return func(s string) any {
			if s == "" {
				return nil
			}
			n, _ := strconv.ParseInt(s, 10, 64)
			return n
		}
	case isFloat:
		return func(s string) any {
			if s == "" {
				return nil
			}
			f, _ := strconv.ParseFloat(s, 64)
			return f
		}
	default:
		return func(s string) any {
			if s == "" {
				return nil
			}
			return s
		}
	}
}
