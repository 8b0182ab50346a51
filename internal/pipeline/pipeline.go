// Package pipeline composes loaders, cleaners, aggregations, writers and
// verifiers into linear, single-run pipelines and records each run in the
// run ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapflow/pkg/core"
)

// Kind orders stages. A pipeline never goes back to an earlier kind.
type Kind int

// Stage kinds in execution order.
const (
	KindLoad Kind = iota
	KindClean
	KindMerge
	KindPersist
	KindVerify
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindClean:
		return "clean"
	case KindMerge:
		return "merge"
	case KindPersist:
		return "persist"
	case KindVerify:
		return "verify"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StageFunc transforms the dataset produced by the previous stage.
type StageFunc func(ctx context.Context, in Dataset) (Dataset, error)

// Stage is one named step of a pipeline.
type Stage struct {
	Name string
	Kind Kind
	Run  StageFunc
}

// Pipeline is an ordered, validated list of stages.
type Pipeline struct {
	name   string
	stages []Stage
	logger *slog.Logger
}

// Result is the outcome of Pipeline.Run. Data holds the output of the last
// stage that produced one, including a failing stage that returned data
// alongside its error.
type Result struct {
	Run  *core.Run
	Data Dataset
}

// New validates stages and builds a pipeline. Stage names must be unique
// and non-empty, every stage needs a Run func and kinds may not decrease.
// If logger is nil, a discard logger is used.
func New(name string, logger *slog.Logger, stages ...Stage) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if name == "" {
		return nil, errors.New("pipeline name is required")
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("pipeline %s has no stages", name)
	}

	seen := make(map[string]bool, len(stages))
	for i, s := range stages {
		switch {
		case s.Name == "":
			return nil, fmt.Errorf("pipeline %s: stage %d has no name", name, i)
		case seen[s.Name]:
			return nil, fmt.Errorf("pipeline %s: duplicate stage %q", name, s.Name)
		case s.Run == nil:
			return nil, fmt.Errorf("pipeline %s: stage %q has no run func", name, s.Name)
		case s.Kind < KindLoad || s.Kind > KindVerify:
			return nil, fmt.Errorf("pipeline %s: stage %q has unknown kind %d", name, s.Name, int(s.Kind))
		case i > 0 && s.Kind < stages[i-1].Kind:
			return nil, fmt.Errorf("pipeline %s: %s stage %q cannot follow %s stage %q",
				name, s.Kind, s.Name, stages[i-1].Kind, stages[i-1].Name)
		}
		seen[s.Name] = true
	}

	return &Pipeline{
		name:   name,
		stages: append([]Stage(nil), stages...),
		logger: logger.With("pipeline", name),
	}, nil
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Stages returns the stage list.
func (p *Pipeline) Stages() []Stage {
	return append([]Stage(nil), p.stages...)
}

// Run executes the stages in order. The first failing stage ends the run
// and later stages never start. When store is non-nil the run and every
// stage are recorded in it.
func (p *Pipeline) Run(ctx context.Context, store core.Store) (*Result, error) {
	p.logger.Info("starting run")

	rec := &recorder{store: store, logger: p.logger}
	run, err := rec.start(p.name)
	if err != nil {
		return nil, err
	}

	data := Dataset{}
	var runErr error
	for i, s := range p.stages {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		sr := rec.startStage(run, s, i)
		started := time.Now()
		p.logger.Debug("running stage", "stage", s.Name, "kind", s.Kind.String())

		out, err := s.Run(ctx, data)
		if err != nil {
			if out.Len() > 0 {
				data = out
			}
			rec.finishStage(sr, core.StageStatusFailed, 0, err.Error())
			p.logger.Error("stage failed", "stage", s.Name, "error", err)
			runErr = fmt.Errorf("%s: %w", s.Name, err)
			break
		}

		rows := out.changedRows(data)
		rec.finishStage(sr, core.StageStatusSuccess, rows, "")
		p.logger.Debug("stage completed", "stage", s.Name, "rows_out", rows, "duration", time.Since(started))
		data = out
	}

	if runErr != nil {
		p.logger.Info("run failed", "error", runErr.Error())
		rec.complete(run, core.RunStatusFailed, runErr.Error())
	} else {
		p.logger.Info("run completed")
		rec.complete(run, core.RunStatusCompleted, "")
	}
	return &Result{Run: rec.reload(run), Data: data}, runErr
}
