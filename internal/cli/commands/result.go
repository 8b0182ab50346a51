package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/pipeline"
	"github.com/leapstack-labs/leapflow/pkg/core"
)

// runPipeline executes p against the ledger and renders the named result
// tables. dest names where the pipeline wrote its output. A failed run still
// renders whatever the stages produced before the error is returned.
func runPipeline(ctx context.Context, cmdCtx *CommandContext, p *pipeline.Pipeline, dest string, tables ...string) error {
	res, runErr := p.Run(ctx, cmdCtx.Ledger)
	if res == nil {
		return runErr
	}
	if err := renderResult(cmdCtx, res, dest, tables...); err != nil {
		return err
	}
	return runErr
}

// renderResult writes a run summary, its stages and the named tables.
func renderResult(cmdCtx *CommandContext, res *pipeline.Result, dest string, tables ...string) error {
	r := cmdCtx.Renderer
	stages := loadStages(cmdCtx, res.Run)

	if r.EffectiveMode() == output.ModeJSON {
		doc := output.PipelineOutput{
			Run:    output.NewRunInfo(res.Run),
			Stages: output.NewStageInfos(stages),
			Output: dest,
			Tables: map[string][]map[string]any{},
		}
		for _, name := range tables {
			if t, ok := res.Data.Get(name); ok {
				doc.Tables[name] = output.Records(t)
			}
		}
		return r.JSON(doc)
	}

	r.Header(1, fmt.Sprintf("%s run %s", res.Run.Pipeline, res.Run.ID))
	renderStages(r, stages)
	r.Println("")

	for _, name := range tables {
		t, ok := res.Data.Get(name)
		if !ok {
			continue
		}
		r.Header(2, name)
		r.Table(t)
		r.Println("")
	}

	status := string(res.Run.Status)
	if res.Run.CompletedAt != nil {
		status += " in " + output.FormatDuration(res.Run.CompletedAt.Sub(res.Run.StartedAt))
	}
	r.KeyValue("Status", status)
	if res.Run.Error != "" {
		r.KeyValue("Error", res.Run.Error)
	}
	if dest != "" {
		r.KeyValue("Output", dest)
	}
	return nil
}

func loadStages(cmdCtx *CommandContext, run *core.Run) []*core.StageRun {
	if cmdCtx.Ledger == nil {
		return nil
	}
	stages, err := cmdCtx.Ledger.GetStageRunsForRun(run.ID)
	if err != nil {
		cmdCtx.Logger.Warn("failed to read stage runs", "run", run.ID, "error", err)
		return nil
	}
	return stages
}

func renderStages(r *output.Renderer, stages []*core.StageRun) {
	for _, s := range stages {
		detail := fmt.Sprintf("%s, %s rows, %s", s.Kind, output.FormatCount(s.RowsOut),
			output.FormatDuration(time.Duration(s.ExecutionMS)*time.Millisecond))
		if s.Error != "" {
			detail = fmt.Sprintf("%s, %s", s.Kind, s.Error)
		}
		r.StatusLine(s.Stage, string(s.Status), detail)
	}
}
