package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// RecordStageRun inserts a stage execution. An empty ID is generated and
// a zero StartedAt is set to now.
func (s *SQLiteStore) RecordStageRun(sr *core.StageRun) error {
	if s.db == nil {
		return errNotOpened
	}
	if sr.ID == "" {
		sr.ID = generateID()
	}
	if sr.StartedAt.IsZero() {
		sr.StartedAt = time.Now().UTC()
	}
	if sr.Status == "" {
		sr.Status = core.StageStatusRunning
	}

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO stage_runs (id, run_id, stage, kind, position, status, rows_out, started_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sr.ID, sr.RunID, sr.Stage, sr.Kind, sr.Position, string(sr.Status), sr.RowsOut, sr.StartedAt, nullString(sr.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to record stage run: %w", err)
	}
	return nil
}

// UpdateStageRun finishes a stage execution and stores its duration.
func (s *SQLiteStore) UpdateStageRun(id string, status core.StageStatus, rowsOut int64, errMsg string) error {
	if s.db == nil {
		return errNotOpened
	}

	var startedAt time.Time
	if err := s.db.QueryRowContext(ctx(), `SELECT started_at FROM stage_runs WHERE id = ?`, id).Scan(&startedAt); err != nil {
		return fmt.Errorf("stage run not found: %s: %w", id, err)
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx(),
		`UPDATE stage_runs
		 SET status = ?, rows_out = ?, completed_at = ?, error = ?, execution_ms = ?
		 WHERE id = ?`,
		string(status), rowsOut, now, nullString(errMsg), now.Sub(startedAt).Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update stage run: %w", err)
	}
	return nil
}

// GetStageRunsForRun returns the stage executions of a run in pipeline order.
func (s *SQLiteStore) GetStageRunsForRun(runID string) ([]*core.StageRun, error) {
	if s.db == nil {
		return nil, errNotOpened
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT id, run_id, stage, kind, position, status, rows_out, started_at, completed_at, error, execution_ms
		 FROM stage_runs WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*core.StageRun
	for rows.Next() {
		var (
			sr          core.StageRun
			status      string
			completedAt sql.NullTime
			errMsg      sql.NullString
		)
		if err := rows.Scan(&sr.ID, &sr.RunID, &sr.Stage, &sr.Kind, &sr.Position, &status, &sr.RowsOut,
			&sr.StartedAt, &completedAt, &errMsg, &sr.ExecutionMS); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		sr.Status = core.StageStatus(status)
		sr.StartedAt = sr.StartedAt.UTC()
		if completedAt.Valid {
			t := completedAt.Time.UTC()
			sr.CompletedAt = &t
		}
		sr.Error = errMsg.String
		out = append(out, &sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get stage runs: %w", err)
	}
	return out, nil
}
