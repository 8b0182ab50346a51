package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapflow/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadCSV_InfersKinds(t *testing.T) {
	path := writeFile(t, "dailyActivity_merged.csv",
		"Id,ActivityDate,TotalSteps,TotalDistance\n"+
			"1503960366,4/12/2016,13162,8.5\n"+
			"1503960366,4/13/2016,,6\n")

	tbl, err := ReadCSV(path, "Id", "ActivityDate")
	require.NoError(t, err)

	assert.Equal(t, "dailyActivity_merged", tbl.Name)
	assert.Equal(t, []string{"Id", "ActivityDate", "TotalSteps", "TotalDistance"}, tbl.Columns)
	assert.Equal(t, []any{int64(1503960366), "4/12/2016", int64(13162), 8.5}, tbl.Rows[0])
	assert.Equal(t, []any{int64(1503960366), "4/13/2016", nil, 6.0}, tbl.Rows[1])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	path := writeFile(t, "needs.csv", "\uFEFFregion_id,shelter_needed\n1,10\n")

	tbl, err := ReadCSV(path, "region_id")
	require.NoError(t, err)
	assert.Equal(t, "region_id", tbl.Columns[0])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		expected []string
		kind     error
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.csv") },
			expected: nil,
			kind:     core.ErrLoad,
		},
		{
			name:     "empty file",
			path:     func(t *testing.T) string { return writeFile(t, "empty.csv", "") },
			expected: nil,
			kind:     core.ErrLoad,
		},
		{
			name:     "ragged rows",
			path:     func(t *testing.T) string { return writeFile(t, "bad.csv", "a,b\n1,2,3\n") },
			expected: nil,
			kind:     core.ErrLoad,
		},
		{
			name:     "missing expected column",
			path:     func(t *testing.T) string { return writeFile(t, "sleep.csv", "Id,SleepDay\n1,4/12/2016\n") },
			expected: []string{"Id", "TotalMinutesAsleep"},
			kind:     core.ErrSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(tt.path(t), tt.expected...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	tbl, err := Parse("logistics", strings.NewReader("delivery_id,region_id\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, []string{"delivery_id", "region_id"}, tbl.Columns)
}

func TestParse_MixedColumnFallsBackToString(t *testing.T) {
	tbl, err := Parse("t", strings.NewReader("v\n1\nn/a\n2.5\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "n/a", "2.5"}, tbl.Column("v"))
}
