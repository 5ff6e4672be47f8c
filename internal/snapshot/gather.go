package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/resilience"
	"github.com/sells-group/portfolio-report/internal/store"
)

// Snapshot is one complete, consistent read of every collection. It must be
// treated as immutable once returned.
type Snapshot struct {
	store.Dataset

	// States records whether each collection came back Empty or Some.
	States map[model.Collection]State
}

// Options controls how the gateway is read.
type Options struct {
	// Timeout bounds each collection read, retries included. Zero means no
	// per-read timeout.
	Timeout time.Duration

	// MaxConcurrency caps in-flight reads. Zero means unbounded.
	MaxConcurrency int

	Retry   resilience.RetryConfig
	Breaker *resilience.CircuitBreaker

	// Limiter throttles reads when set.
	Limiter *rate.Limiter
}

// NewOptions builds gather options from configuration. The returned
// breaker is fresh; share Options across runs to share the breaker.
func NewOptions(cfg config.FetchConfig) Options {
	retry := resilience.DefaultRetryConfig()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoffMs > 0 {
		retry.InitialBackoff = time.Duration(cfg.InitialBackoffMs) * time.Millisecond
	}

	breaker := resilience.DefaultCircuitBreakerConfig()
	if cfg.BreakerThreshold > 0 {
		breaker.FailureThreshold = cfg.BreakerThreshold
	}
	if cfg.BreakerResetSecs > 0 {
		breaker.ResetTimeout = time.Duration(cfg.BreakerResetSecs) * time.Second
	}
	breaker.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("snapshot: store breaker changed state",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	opts := Options{
		Timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxConcurrency: cfg.MaxConcurrency,
		Retry:          retry,
		Breaker:        resilience.NewCircuitBreaker(breaker),
	}
	if cfg.RatePerSec > 0 {
		burst := max(int(cfg.RatePerSec), 1)
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return opts
}

// Gather launches every collection read concurrently and waits for all of
// them. The first Unavailable collection cancels the rest and is returned
// as a *FetchError; no partial snapshot is ever returned.
func Gather(ctx context.Context, gw store.Gateway, opts Options) (*Snapshot, error) {
	if gw == nil {
		return nil, errNoGateway
	}

	snap := &Snapshot{States: make(map[model.Collection]State, len(model.Collections))}
	g, gctx := errgroup.WithContext(ctx)
	if opts.MaxConcurrency > 0 {
		g.SetLimit(opts.MaxConcurrency)
	}
	r := &reader{ctx: gctx, opts: opts, g: g, states: snap.States}
	ds := &snap.Dataset

	spawn(r, model.CollProjects, gw.ListProjects, &ds.Projects)
	spawn(r, model.CollBuildings, gw.ListBuildings, &ds.Buildings)
	spawn(r, model.CollUnits, gw.ListUnits, &ds.Units)
	spawn(r, model.CollCustomers, gw.ListCustomers, &ds.Customers)
	spawn(r, model.CollSales, gw.ListSales, &ds.Sales)
	spawn(r, model.CollContractTypes, gw.ListContractTypes, &ds.ContractTypes)
	spawn(r, model.CollSubcontractors, gw.ListSubcontractors, &ds.Subcontractors)
	spawn(r, model.CollContracts, gw.ListContracts, &ds.Contracts)
	spawn(r, model.CollProjectPhases, gw.ListProjectPhases, &ds.ProjectPhases)
	spawn(r, model.CollWorkLogs, gw.ListWorkLogs, &ds.WorkLogs)
	spawn(r, model.CollSubcontractorMilestones, gw.ListSubcontractorMilestones, &ds.SubcontractorMilestones)
	spawn(r, model.CollInvestors, gw.ListInvestors, &ds.Investors)
	spawn(r, model.CollProjectInvestments, gw.ListProjectInvestments, &ds.ProjectInvestments)
	spawn(r, model.CollBankCredits, gw.ListBankCredits, &ds.BankCredits)
	spawn(r, model.CollInvoices, gw.ListInvoices, &ds.Invoices)
	spawn(r, model.CollPayments, gw.ListPayments, &ds.Payments)
	spawn(r, model.CollCompanies, gw.ListCompanies, &ds.Companies)
	spawn(r, model.CollBanks, gw.ListBanks, &ds.Banks)
	spawn(r, model.CollBankAccounts, gw.ListBankAccounts, &ds.BankAccounts)
	spawn(r, model.CollCreditLines, gw.ListCreditLines, &ds.CreditLines)
	spawn(r, model.CollCompanyLoans, gw.ListCompanyLoans, &ds.CompanyLoans)
	spawn(r, model.CollCreditAllocations, gw.ListCreditAllocations, &ds.CreditAllocations)
	spawn(r, model.CollTicCostStructures, gw.ListTicCostStructures, &ds.TicCostStructures)
	spawn(r, model.CollOfficeSuppliers, gw.ListOfficeSuppliers, &ds.OfficeSuppliers)
	spawn(r, model.CollRetailProjects, gw.ListRetailProjects, &ds.RetailProjects)
	spawn(r, model.CollRetailPhases, gw.ListRetailPhases, &ds.RetailPhases)
	spawn(r, model.CollRetailContracts, gw.ListRetailContracts, &ds.RetailContracts)
	spawn(r, model.CollRetailLandPlots, gw.ListRetailLandPlots, &ds.RetailLandPlots)
	spawn(r, model.CollRetailCustomers, gw.ListRetailCustomers, &ds.RetailCustomers)
	spawn(r, model.CollRetailSuppliers, gw.ListRetailSuppliers, &ds.RetailSuppliers)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

type reader struct {
	ctx  context.Context
	opts Options
	g    *errgroup.Group

	mu     sync.Mutex
	states map[model.Collection]State
}

func (r *reader) record(coll model.Collection, s State) {
	r.mu.Lock()
	r.states[coll] = s
	r.mu.Unlock()
}

// spawn schedules one collection read. Each goroutine writes only its own
// destination field; g.Wait orders those writes before Gather returns.
func spawn[T any](r *reader, coll model.Collection, list func(context.Context) ([]T, error), dst *[]T) {
	r.g.Go(func() error {
		start := time.Now()
		f := read(r.ctx, r.opts, coll, list)
		r.record(coll, f.State())

		if f.State() == Unavailable {
			log := zap.L().Warn
			if errors.Is(f.Err(), context.Canceled) {
				log = zap.L().Debug
			}
			log("snapshot: collection unavailable",
				zap.String("collection", string(coll)),
				zap.Error(f.Err()),
			)
			return &FetchError{Collection: coll, Err: f.Err()}
		}

		*dst = f.Rows()
		zap.L().Debug("snapshot: collection fetched",
			zap.String("collection", string(coll)),
			zap.String("state", f.State().String()),
			zap.Int("rows", len(*dst)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil
	})
}

// read performs one throttled, time-bounded, retried and breaker-guarded
// collection read.
func read[T any](ctx context.Context, opts Options, coll model.Collection, list func(context.Context) ([]T, error)) Fetched[T] {
	if opts.Limiter != nil {
		if err := opts.Limiter.Wait(ctx); err != nil {
			return Failed[T](err)
		}
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	retry := opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(string(coll))
	}
	rows, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]T, error) {
		return resilience.ExecuteVal(ctx, opts.Breaker, list)
	})
	if err != nil {
		return Failed[T](err)
	}
	return Rows(rows)
}
