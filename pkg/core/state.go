package core

import "time"

// Store defines the run ledger operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(pipeline string) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, errMsg string) error
	GetLatestRun(pipeline string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)

	// Stage run operations
	RecordStageRun(stageRun *StageRun) error
	UpdateStageRun(id string, status StageStatus, rowsOut int64, errMsg string) error
	GetStageRunsForRun(runID string) ([]*StageRun, error)
}

// RunStatus represents the status of a pipeline run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one execution of a pipeline.
type Run struct {
	ID          string
	Pipeline    string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// StageStatus represents the status of an individual stage execution.
type StageStatus string

// Stage status constants.
const (
	StageStatusRunning StageStatus = "running"
	StageStatusSuccess StageStatus = "success"
	StageStatusFailed  StageStatus = "failed"
)

// StageRun represents a single stage execution within a run.
type StageRun struct {
	ID          string
	RunID       string
	Stage       string
	Kind        string
	Position    int
	Status      StageStatus
	RowsOut     int64
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	ExecutionMS int64
}
