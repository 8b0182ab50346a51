// Package core defines the shared language of leapflow.
//
// This package contains:
//   - Error kinds shared by every pipeline stage (ErrLoad, ErrSchema, ...)
//   - Cell value kinds used by record tables and store adapters
//   - Service contracts (Adapter, Store) and their configuration types
//   - Run ledger entities (Run, StageRun)
//
// The Golden Rule: pkg/core imports ONLY the standard library.
// All other packages depend on core, not the reverse.
package core
