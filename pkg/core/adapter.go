package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all store adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// BeginTx starts a transaction on the underlying connection.
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)

	// Exec executes a SQL statement (or script) that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a read-only SQL statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*sql.Rows, error)

	// GetTableMetadata retrieves metadata for a table.
	// Returns ErrSchema when the table does not exist.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// Placeholder returns the bind parameter marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// ColumnType returns the column type used to store cells of the given kind.
	ColumnType(kind ValueKind) string

	// DialectName returns the SQL dialect name (sqlite, duckdb, postgres).
	DialectName() string
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// HasColumn reports whether the table declares the named column.
func (m *TableMetadata) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnType returns the declared type of the named column, or "".
func (m *TableMetadata) ColumnType(name string) string {
	for _, c := range m.Columns {
		if c.Name == name {
			return c.Type
		}
	}
	return ""
}
