package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/resilience"
	"github.com/sells-group/portfolio-report/internal/store"
)

func fixture() *store.Dataset {
	return &store.Dataset{
		Projects: []model.Project{{ID: "p1", Name: "Sunset"}, {ID: "p2", Name: "Harbor"}},
		Buildings: []model.Building{
			{ID: "b1", ProjectID: "p1"}, {ID: "b2", ProjectID: "p2"},
		},
		Units: []model.Unit{
			{ID: "u1", ProjectID: "p1", Kind: model.UnitApartment},
			{ID: "u2", ProjectID: "p2", Kind: model.UnitApartment},
		},
		Sales:     []model.Sale{{ID: "s1", UnitID: "u1"}, {ID: "s2", UnitID: "u2"}},
		Customers: []model.Customer{{ID: "c1"}},
		Contracts: []model.Contract{{ID: "k1", ProjectID: "p1"}, {ID: "k2", ProjectID: "p2"}},
		WorkLogs:  []model.WorkLog{{ID: "w1", ContractID: "k1"}, {ID: "w2", ContractID: "k2"}},
		SubcontractorMilestones: []model.SubcontractorMilestone{
			{ID: "m1", ContractID: "k2"},
		},
		Invoices: []model.Invoice{
			{ID: "i1", ProjectID: model.Str("p1")},
			{ID: "i2", ContractID: model.Str("k1")},
			{ID: "i3", ProjectID: model.Str("p2")},
			{ID: "i4"},
		},
		Payments: []model.Payment{
			{ID: "y1", InvoiceID: "i1"}, {ID: "y2", InvoiceID: "i2"}, {ID: "y3", InvoiceID: "i3"},
		},
		ProjectInvestments: []model.ProjectInvestment{{ID: "inv1", ProjectID: "p1"}, {ID: "inv2", ProjectID: "p2"}},
		BankCredits:        []model.BankCredit{{ID: "bc1", ProjectID: model.Str("p2")}, {ID: "bc2"}},
		CreditAllocations:  []model.CreditAllocation{{ID: "ca1", ProjectID: model.Str("p1")}},
		TicCostStructures:  []model.TicCostStructure{{ID: "t1", ProjectID: "p1"}},
		BankAccounts:       []model.BankAccount{{ID: "ba1", CompanyID: "co1", Balance: 10}},
		RetailProjects:     []model.RetailProject{{ID: "r1"}},
	}
}

func testOptions() Options {
	return Options{
		Timeout: time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
	}
}

// flakyGateway fails invoice reads with err for the first failures calls.
type flakyGateway struct {
	store.Gateway
	err      error
	failures int32
	calls    atomic.Int32
	block    bool
}

func (f *flakyGateway) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	n := f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil && (f.failures == 0 || n <= f.failures) {
		return nil, f.err
	}
	return f.Gateway.ListInvoices(ctx)
}

func TestGather_Complete(t *testing.T) {
	snap, err := Gather(context.Background(), store.NewMemory(fixture()), testOptions())
	require.NoError(t, err)

	assert.Len(t, snap.Projects, 2)
	assert.Len(t, snap.Invoices, 4)
	assert.Len(t, snap.States, 30)
	assert.Equal(t, Some, snap.States[model.CollProjects])
	assert.Equal(t, Empty, snap.States[model.CollBanks])
	assert.Nil(t, snap.Banks)

	counts := snap.Counts()
	assert.Equal(t, 3, counts[model.CollPayments])
}

func TestGather_UnavailableFailsRun(t *testing.T) {
	gw := &flakyGateway{Gateway: store.NewMemory(fixture()), err: errors.New("relation \"invoices\" does not exist")}

	snap, err := Gather(context.Background(), gw, testOptions())
	require.Error(t, err)
	assert.Nil(t, snap)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.CollInvoices, fe.Collection)
	assert.Contains(t, err.Error(), "snapshot: fetch invoices")
	assert.Equal(t, int32(1), gw.calls.Load(), "permanent errors are not retried")
}

func TestGather_TransientErrorRetried(t *testing.T) {
	gw := &flakyGateway{
		Gateway:  store.NewMemory(fixture()),
		err:      resilience.NewTransientError(errors.New("connection reset")),
		failures: 2,
	}

	snap, err := Gather(context.Background(), gw, testOptions())
	require.NoError(t, err)
	assert.Len(t, snap.Invoices, 4)
	assert.Equal(t, int32(3), gw.calls.Load())
}

func TestGather_Timeout(t *testing.T) {
	gw := &flakyGateway{Gateway: store.NewMemory(fixture()), block: true}
	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond

	_, err := Gather(context.Background(), gw, opts)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.CollInvoices, fe.Collection)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGather_OpenBreakerIsUnavailable(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	_, _ = resilience.ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 0, resilience.NewTransientError(errors.New("down"))
	})
	require.Equal(t, resilience.CircuitOpen, cb.State())

	opts := testOptions()
	opts.Breaker = cb
	_, err := Gather(context.Background(), store.NewMemory(fixture()), opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}

func TestGather_BoundedConcurrencyAndLimiter(t *testing.T) {
	opts := testOptions()
	opts.MaxConcurrency = 2
	opts.Limiter = rate.NewLimiter(rate.Inf, 1)

	snap, err := Gather(context.Background(), store.NewMemory(fixture()), opts)
	require.NoError(t, err)
	assert.Len(t, snap.Units, 2)
}

func TestGather_NilGateway(t *testing.T) {
	_, err := Gather(context.Background(), nil, testOptions())
	assert.Error(t, err)
}

func TestNewOptions(t *testing.T) {
	opts := NewOptions(config.FetchConfig{
		TimeoutSecs:      15,
		MaxAttempts:      4,
		InitialBackoffMs: 50,
		MaxConcurrency:   8,
		RatePerSec:       20,
		BreakerThreshold: 3,
		BreakerResetSecs: 10,
	})
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 4, opts.Retry.MaxAttempts)
	assert.Equal(t, 50*time.Millisecond, opts.Retry.InitialBackoff)
	assert.Equal(t, 8, opts.MaxConcurrency)
	require.NotNil(t, opts.Limiter)
	assert.InDelta(t, 20.0, float64(opts.Limiter.Limit()), 0.001)
	require.NotNil(t, opts.Breaker)

	assert.Nil(t, NewOptions(config.FetchConfig{}).Limiter)
}

func TestFetched(t *testing.T) {
	assert.Equal(t, Empty, Rows[int](nil).State())
	assert.Equal(t, Empty, Rows([]int{}).State())

	some := Rows([]int{1, 2})
	assert.Equal(t, Some, some.State())
	assert.Equal(t, []int{1, 2}, some.Rows())

	failed := Failed[int](errors.New("boom"))
	assert.Equal(t, Unavailable, failed.State())
	assert.Nil(t, failed.Rows())
	assert.EqualError(t, failed.Err(), "boom")

	assert.Equal(t, "unavailable", Unavailable.String())
	text, err := Some.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "some", string(text))
}

func TestScope_All(t *testing.T) {
	snap := &Snapshot{Dataset: *fixture()}
	assert.Same(t, snap, Scope(snap, AllProjects))
	assert.Same(t, snap, Scope(snap, ""))
}

func TestScope_Project(t *testing.T) {
	snap, err := Gather(context.Background(), store.NewMemory(fixture()), testOptions())
	require.NoError(t, err)

	p1 := Scope(snap, "p1")
	assert.Equal(t, []model.Project{{ID: "p1", Name: "Sunset"}}, p1.Projects)
	assert.Len(t, p1.Buildings, 1)
	assert.Len(t, p1.Units, 1)
	assert.Equal(t, "s1", p1.Sales[0].ID)
	assert.Len(t, p1.Sales, 1)
	assert.Len(t, p1.Contracts, 1)
	assert.Len(t, p1.WorkLogs, 1)
	assert.Empty(t, p1.SubcontractorMilestones)
	assert.Equal(t, Empty, p1.States[model.CollSubcontractorMilestones])

	var invIDs []string
	for _, inv := range p1.Invoices {
		invIDs = append(invIDs, inv.ID)
	}
	assert.Equal(t, []string{"i1", "i2"}, invIDs)
	assert.Len(t, p1.Payments, 2)
	assert.Len(t, p1.ProjectInvestments, 1)
	assert.Empty(t, p1.BankCredits)
	assert.Len(t, p1.CreditAllocations, 1)
	assert.Len(t, p1.TicCostStructures, 1)

	// unscoped collections pass through
	assert.Len(t, p1.Customers, 1)
	assert.Len(t, p1.BankAccounts, 1)
	assert.Len(t, p1.RetailProjects, 1)

	// the input is not modified
	assert.Len(t, snap.Projects, 2)
	assert.Equal(t, Some, snap.States[model.CollSubcontractorMilestones])
}

func TestScope_UnknownProject(t *testing.T) {
	snap := &Snapshot{Dataset: *fixture(), States: map[model.Collection]State{}}
	out := Scope(snap, "nope")
	assert.Empty(t, out.Projects)
	assert.Empty(t, out.Units)
	assert.Empty(t, out.Invoices)
	assert.Len(t, out.BankAccounts, 1)
}
