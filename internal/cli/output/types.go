package output

import (
	"time"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// RunInfo is the JSON form of a pipeline run.
type RunInfo struct {
	ID          string     `json:"id"`
	Pipeline    string     `json:"pipeline"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// StageInfo is the JSON form of one stage of a run.
type StageInfo struct {
	Stage       string `json:"stage"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	RowsOut     int64  `json:"rows_out"`
	ExecutionMS int64  `json:"execution_ms"`
	Error       string `json:"error,omitempty"`
}

// PipelineOutput is the JSON document a pipeline command writes.
type PipelineOutput struct {
	Run    RunInfo                     `json:"run"`
	Stages []StageInfo                 `json:"stages"`
	Output string                      `json:"output,omitempty"`
	Tables map[string][]map[string]any `json:"tables,omitempty"`
}

// RunsOutput is the JSON document the runs command writes.
type RunsOutput struct {
	Runs []RunInfo `json:"runs"`
}

// NewRunInfo converts a ledger run.
func NewRunInfo(r *core.Run) RunInfo {
	return RunInfo{
		ID:          r.ID,
		Pipeline:    r.Pipeline,
		Status:      string(r.Status),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Error:       r.Error,
	}
}

// NewStageInfos converts ledger stage runs.
func NewStageInfos(stages []*core.StageRun) []StageInfo {
	out := make([]StageInfo, 0, len(stages))
	for _, s := range stages {
		out = append(out, StageInfo{
			Stage:       s.Stage,
			Kind:        s.Kind,
			Status:      string(s.Status),
			RowsOut:     s.RowsOut,
			ExecutionMS: s.ExecutionMS,
			Error:       s.Error,
		})
	}
	return out
}
