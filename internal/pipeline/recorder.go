package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// recorder writes runs and stage runs to an optional ledger. Ledger
// failures after the run has started are logged and do not fail the run.
type recorder struct {
	store  core.Store
	logger *slog.Logger
}

func (r *recorder) start(pipeline string) (*core.Run, error) {
	if r.store == nil {
		return &core.Run{Pipeline: pipeline, Status: core.RunStatusRunning, StartedAt: time.Now().UTC()}, nil
	}
	run, err := r.store.CreateRun(pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	r.logger.Debug("created run", "run_id", run.ID)
	return run, nil
}

func (r *recorder) startStage(run *core.Run, s Stage, position int) *core.StageRun {
	sr := &core.StageRun{
		RunID:    run.ID,
		Stage:    s.Name,
		Kind:     s.Kind.String(),
		Position: position,
		Status:   core.StageStatusRunning,
	}
	if r.store == nil {
		return sr
	}
	if err := r.store.RecordStageRun(sr); err != nil {
		r.logger.Warn("failed to record stage run", "stage", s.Name, "error", err)
		sr.ID = ""
	}
	return sr
}

func (r *recorder) finishStage(sr *core.StageRun, status core.StageStatus, rows int64, errMsg string) {
	if r.store == nil || sr.ID == "" {
		return
	}
	if err := r.store.UpdateStageRun(sr.ID, status, rows, errMsg); err != nil {
		r.logger.Warn("failed to update stage run", "stage", sr.Stage, "error", err)
	}
}

func (r *recorder) complete(run *core.Run, status core.RunStatus, errMsg string) {
	if r.store == nil {
		now := time.Now().UTC()
		run.Status = status
		run.CompletedAt = &now
		run.Error = errMsg
		return
	}
	if err := r.store.CompleteRun(run.ID, status, errMsg); err != nil {
		r.logger.Warn("failed to complete run", "run_id", run.ID, "error", err)
	}
}

func (r *recorder) reload(run *core.Run) *core.Run {
	if r.store == nil {
		return run
	}
	if got, err := r.store.GetRun(run.ID); err == nil {
		return got
	}
	return run
}
