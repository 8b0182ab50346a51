// Package adapter provides the store adapter contract and the shared
// database/sql plumbing concrete adapters build on.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves with Register from their init functions.
package adapter

import (
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Type aliases for the core contract so adapter implementations only need
// to import this package.
type (
	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
)
