// Package postgres provides a PostgreSQL database adapter for leapflow.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapflow/pkg/adapter"
	"github.com/leapstack-labs/leapflow/pkg/core"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
// Options other than sslmode are passed through as connection parameters
// in key order; values containing spaces or quotes are quoted.
func buildPostgresDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		quoteValue(host), port, quoteValue(cfg.Database), quoteValue(sslmode))

	if cfg.Username != "" {
		dsn += " user=" + quoteValue(cfg.Username)
	}
	if cfg.Password != "" {
		dsn += " password=" + quoteValue(cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += " search_path=" + quoteValue(cfg.Schema)
	}
	for _, key := range slices.Sorted(maps.Keys(cfg.Options)) {
		if key == "sslmode" {
			continue
		}
		dsn += " " + key + "=" + quoteValue(cfg.Options[key])
	}

	return dsn
}

func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	out := []byte{'\''}
	for i := 0; i < len(v); i++ {
		if v[i] == '\'' || v[i] == '\\' {
			out = append(out, '\\')
		}
		out = append(out, v[i])
	}
	return string(append(out, '\''))
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	schema := a.Cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return a.GetTableMetadataCommon(ctx, table, schema, a.Placeholder)
}

// Placeholder returns the bind marker for the n-th argument.
func (a *Adapter) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// ColumnType maps a cell kind to a PostgreSQL column type.
func (a *Adapter) ColumnType(kind core.ValueKind) string {
	switch kind {
	case core.KindInt:
		return "BIGINT"
	case core.KindFloat:
		return "DOUBLE PRECISION"
	case core.KindTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
