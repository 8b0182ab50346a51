// Package state records pipeline runs and their stages in a SQLite run
// ledger.
package state

import (
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Type aliases so callers of the ledger only need this package.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.Run.
	Run = core.Run

	// StageStatus is an alias for core.StageStatus.
	StageStatus = core.StageStatus

	// StageRun is an alias for core.StageRun.
	StageRun = core.StageRun
)

// Re-export status constants from core.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed

	StageStatusRunning = core.StageStatusRunning
	StageStatusSuccess = core.StageStatusSuccess
	StageStatusFailed  = core.StageStatusFailed
)
