// Package pipeline runs report requests end to end and holds the single
// published Report. Each request gets a new generation; only the latest
// issued generation may publish, and older in-flight runs are cancelled.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/snapshot"
	"github.com/sells-group/portfolio-report/internal/store"
)

// ErrSuperseded is returned to the caller of a run that was overtaken by a
// newer request. Its result is discarded.
var ErrSuperseded = eris.New("pipeline: run superseded by a newer request")

// Options configures an Engine.
type Options struct {
	Fetch   snapshot.Options
	Insight config.InsightConfig

	// TopN caps the ranked project list.
	TopN int

	// Now is the run clock. Defaults to time.Now.
	Now func() time.Time
}

// NewOptions builds engine options from configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Fetch:   snapshot.NewOptions(cfg.Fetch),
		Insight: cfg.Insight,
		TopN:    cfg.Report.TopN,
		Now:     time.Now,
	}
}

// Result is one completed run.
type Result struct {
	RunID      string         `json:"run_id"`
	Generation uint64         `json:"generation"`
	Report     *report.Report `json:"report"`
	Stages     []StageTiming  `json:"stages"`
}

// Engine runs report requests against a gateway.
type Engine struct {
	gw   store.Gateway
	opts Options

	generation atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	current *Result
}

// New creates an Engine.
func New(gw store.Gateway, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{gw: gw, opts: opts}
}

// Current returns the published result, or nil before the first successful
// run. The returned value must not be modified.
func (e *Engine) Current() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Generation returns the latest issued generation.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// Run executes req and publishes its result. Issuing a run cancels the one
// in flight; a run that is overtaken returns ErrSuperseded and publishes
// nothing. A collection that cannot be read fails the run with a
// *snapshot.FetchError.
func (e *Engine) Run(ctx context.Context, req report.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	gen := e.issue(cancel)
	defer e.release(gen)

	res := &Result{RunID: uuid.NewString(), Generation: gen}
	log := zap.L().With(
		zap.String("run_id", res.RunID),
		zap.Uint64("generation", gen),
	)
	log.Info("pipeline: starting report run",
		zap.String("project_filter", req.ProjectFilter),
		zap.Time("start", req.Start),
		zap.Time("end", req.End),
	)

	t := &tracker{log: log}
	var snap *snapshot.Snapshot
	err := t.track("gather", func() error {
		var gatherErr error
		snap, gatherErr = snapshot.Gather(ctx, e.gw, e.opts.Fetch)
		return gatherErr
	})
	if err != nil {
		if e.superseded(gen) {
			return nil, e.discard(log)
		}
		return nil, err
	}

	rep, err := build(ctx, t, snap, req, e.opts.Now(), e.opts)
	if err != nil {
		if e.superseded(gen) {
			return nil, e.discard(log)
		}
		return nil, eris.Wrap(err, "pipeline: build report")
	}
	res.Report = rep
	res.Stages = t.stages

	if !e.publish(gen, res) {
		return nil, e.discard(log)
	}
	log.Info("pipeline: report published",
		zap.Int("projects", len(rep.Projects)),
		zap.Int("skipped", rep.Diagnostics.SkippedCount),
		zap.Int64("duration_ms", t.total()),
	)
	return res, nil
}

// issue allocates the next generation and cancels the previous run.
func (e *Engine) issue(cancel context.CancelFunc) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	gen := e.generation.Add(1)
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = cancel
	return gen
}

func (e *Engine) release(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation.Load() == gen {
		e.cancel = nil
	}
}

func (e *Engine) superseded(gen uint64) bool {
	return e.generation.Load() != gen
}

// publish swaps in res if gen is still the latest issued generation.
func (e *Engine) publish(gen uint64, res *Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation.Load() != gen {
		return false
	}
	e.current = res
	return true
}

func (e *Engine) discard(log *zap.Logger) error {
	log.Info("pipeline: discarding superseded run",
		zap.Uint64("latest_generation", e.generation.Load()),
	)
	return ErrSuperseded
}
