package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/cashflow"
	"github.com/sells-group/portfolio-report/internal/insight"
	"github.com/sells-group/portfolio-report/internal/metrics"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/risk"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// StageStatus is the outcome of one stage.
type StageStatus string

const (
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
)

// StageTiming records how long a stage took.
type StageTiming struct {
	Name       string      `json:"name"`
	Status     StageStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

type tracker struct {
	log    *zap.Logger
	stages []StageTiming
}

// track runs fn as a named stage and records its timing.
func (t *tracker) track(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()

	st := StageTiming{Name: name, Status: StageComplete, DurationMs: duration}
	if err != nil {
		st.Status = StageFailed
		st.Error = err.Error()
		t.log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
	} else {
		t.log.Info("pipeline: stage complete",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
		)
	}
	t.stages = append(t.stages, st)
	return err
}

// step runs an infallible stage.
func (t *tracker) step(name string, fn func()) {
	_ = t.track(name, func() error {
		fn()
		return nil
	})
}

func (t *tracker) total() int64 {
	var n int64
	for _, s := range t.stages {
		n += s.DurationMs
	}
	return n
}

// Build computes a Report from an already gathered snapshot. It does no
// I/O and returns the same Report for the same inputs.
func Build(ctx context.Context, snap *snapshot.Snapshot, req report.Request, now time.Time, opts Options) (*report.Report, error) {
	return build(ctx, &tracker{log: zap.L()}, snap, req, now, opts)
}

func build(ctx context.Context, t *tracker, snap *snapshot.Snapshot, req report.Request, now time.Time, opts Options) (*report.Report, error) {
	var (
		scoped *snapshot.Snapshot
		facts  *aggregate.Facts
		groups *metrics.Groups
		parts  = report.Parts{Request: req, GeneratedAt: now, States: snap.States}
	)

	t.step("scope", func() {
		scoped = snapshot.Scope(snap, req.ProjectFilter)
	})

	t.step("aggregate", func() {
		facts = aggregate.Build(scoped)
		parts.Skips = append(parts.Skips, facts.Skips...)
	})

	err := t.track("metrics", func() error {
		var metricsErr error
		groups, metricsErr = metrics.ComputeAll(ctx, metrics.Input{
			Snap:  scoped,
			Facts: facts,
			Range: req.Range(),
			Now:   now,
		})
		return metricsErr
	})
	if err != nil {
		return nil, err
	}
	parts.Groups = groups

	t.step("cashflow", func() {
		inflow, outflow, skips := cashflow.Split(facts.Payments, facts.Invoices)
		parts.Skips = append(parts.Skips, skips...)
		parts.CashFlow = cashflow.Collect(inflow, outflow, req.Range())
		parts.CashFlowTotals = cashflow.Sum(parts.CashFlow)
	})

	t.step("risk", func() {
		parts.Projects = risk.Summarize(scoped, facts)
		parts.TopProjects = risk.TopByRevenue(parts.Projects, opts.TopN)
		parts.TopByMargin = risk.TopByMargin(parts.Projects, opts.TopN)
	})

	t.step("insight", func() {
		in := insight.Input{Groups: groups, Projects: parts.Projects, CashFlow: parts.CashFlowTotals}
		gen := insight.NewGenerator(opts.Insight)
		parts.Recommendations = gen.Recommendations(in)
		parts.Risks = gen.Risks(in)
	})

	var rep *report.Report
	err = t.track("assemble", func() error {
		var assembleErr error
		rep, assembleErr = report.Assemble(parts)
		return assembleErr
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}
