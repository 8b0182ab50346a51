package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/testutil"
	"github.com/leapstack-labs/leapflow/pkg/adapters/sqlite"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newStore(t *testing.T) *sqlite.Adapter {
	t.Helper()
	adp := sqlite.New(testutil.NewTestLogger(t))
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: ":memory:"}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
