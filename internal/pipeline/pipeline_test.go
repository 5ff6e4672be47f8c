package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/resilience"
	"github.com/sells-group/portfolio-report/internal/snapshot"
	"github.com/sells-group/portfolio-report/internal/store"
)

var now = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dataset() *store.Dataset {
	return &store.Dataset{
		Projects: []model.Project{
			{ID: "p1", Name: "Sunset", Status: model.ProjectActive},
			{ID: "p2", Name: "Harbor", Status: model.ProjectActive},
		},
		Units: []model.Unit{
			{ID: "u1", ProjectID: "p1", Kind: model.UnitApartment, Area: 50, Price: 100_000, Status: model.UnitSold},
			{ID: "u2", ProjectID: "p2", Kind: model.UnitApartment, Area: 40, Price: 50_000, Status: model.UnitSold},
			{ID: "u3", ProjectID: "p2", Kind: model.UnitApartment, Area: 40, Price: 55_000, Status: model.UnitAvailable},
		},
		Customers: []model.Customer{{ID: "c1"}, {ID: "c2"}},
		Sales: []model.Sale{
			{ID: "s1", UnitID: "u1", CustomerID: model.Str("c1"), SalePrice: 100_000, SaleDate: date(2026, 3, 5)},
			{ID: "s2", UnitID: "u2", CustomerID: model.Str("c2"), SalePrice: 50_000, SaleDate: date(2026, 4, 9)},
			{ID: "s3", UnitID: "missing", SaleDate: date(2026, 4, 9)},
		},
		Contracts: []model.Contract{
			{ID: "k1", ProjectID: "p1", Amount: 40_000, BudgetRealized: 30_000, Status: model.ContractActive},
		},
		Invoices: []model.Invoice{
			{ID: "i1", InvoiceType: model.InvoiceOutgoingSales, Status: model.InvoicePaid, ProjectID: model.Str("p1"),
				IssueDate: date(2026, 3, 5), TotalAmount: 100_000, PaidAmount: 100_000},
			{ID: "i2", InvoiceType: model.InvoiceIncomingSupplier, Status: model.InvoiceUnpaid, ContractID: model.Str("k1"),
				IssueDate: date(2026, 4, 1), TotalAmount: 45_000, RemainingAmount: 45_000},
		},
		Payments: []model.Payment{
			{ID: "y1", InvoiceID: "i1", Amount: 60_000, PaymentDate: date(2026, 5, 10)},
			{ID: "y2", InvoiceID: "i2", Amount: 20_000, PaymentDate: date(2026, 4, 2)},
			{ID: "y3", InvoiceID: "gone", Amount: 10, PaymentDate: date(2026, 4, 2)},
		},
	}
}

func testOptions() Options {
	return Options{
		Fetch: snapshot.Options{
			Timeout: time.Second,
			Retry:   resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
		},
		Insight: config.DefaultInsightConfig(),
		TopN:    5,
		Now:     func() time.Time { return now },
	}
}

func request(filter string) report.Request {
	return report.Request{ProjectFilter: filter, Start: date(2026, 1, 1), End: date(2026, 6, 30)}
}

func TestRun_PublishesReport(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	assert.Nil(t, e.Current())

	res, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)

	assert.Same(t, res, e.Current())
	assert.Equal(t, uint64(1), res.Generation)
	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err)

	var names []string
	for _, s := range res.Stages {
		names = append(names, s.Name)
		assert.Equal(t, StageComplete, s.Status)
	}
	assert.Equal(t, []string{"gather", "scope", "aggregate", "metrics", "cashflow", "risk", "insight", "assemble"}, names)

	r := res.Report
	assert.Equal(t, now, r.GeneratedAt)
	assert.Equal(t, 150_000.0, r.ExecutiveSummary.TotalRevenue)
	assert.Equal(t, 45_000.0, r.ExecutiveSummary.TotalExpenses, "linked invoices above the declared amount win")
	assert.Len(t, r.CashFlow, 6)
	assert.Equal(t, 60_000.0, r.CashFlowTotals.Inflow)
	assert.Equal(t, 20_000.0, r.CashFlowTotals.Outflow)
	require.Len(t, r.Insights.TopProjects, 2)
	assert.Equal(t, "p1", r.Insights.TopProjects[0].ID)
	require.Len(t, r.Insights.TopByMargin, 2)
	assert.Equal(t, "p2", r.Insights.TopByMargin[0].ID, "no contracts on p2, so its margin is highest")
}

func TestRun_Reconciles(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	res, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)

	var revenue, expense aggregate.Sum
	for _, p := range res.Report.Projects {
		revenue.Add(p.Revenue)
		expense.Add(p.Expense)
	}
	assert.Equal(t, res.Report.ExecutiveSummary.TotalRevenue, revenue.Float())
	assert.Equal(t, res.Report.ExecutiveSummary.TotalExpenses, expense.Float())
}

func TestRun_ReconcilesSubCentAmounts(t *testing.T) {
	ds := &store.Dataset{
		Projects: []model.Project{
			{ID: "p1", Status: model.ProjectActive},
			{ID: "p2", Status: model.ProjectActive},
			{ID: "p3", Status: model.ProjectActive},
		},
		Units: []model.Unit{
			{ID: "u1", ProjectID: "p1", Kind: model.UnitApartment, Price: 1000.005, Status: model.UnitSold},
			{ID: "u2", ProjectID: "p2", Kind: model.UnitApartment, Price: 1000.004, Status: model.UnitSold},
		},
		Sales: []model.Sale{
			{ID: "s1", UnitID: "u1", SaleDate: date(2026, 3, 5)},
			{ID: "s2", UnitID: "u2", SaleDate: date(2026, 3, 6)},
		},
		Contracts: []model.Contract{
			{ID: "k1", ProjectID: "p1", Amount: 100.004},
			{ID: "k2", ProjectID: "p2", Amount: 100.004},
			{ID: "k3", ProjectID: "p3", Amount: 100.004},
		},
	}
	e := New(store.NewMemory(ds), testOptions())
	res, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)

	var revenue, expense aggregate.Sum
	for _, p := range res.Report.Projects {
		revenue.Add(p.Revenue)
		expense.Add(p.Expense)
	}
	assert.Equal(t, 300.0, res.Report.ExecutiveSummary.TotalExpenses)
	assert.Equal(t, res.Report.ExecutiveSummary.TotalExpenses, expense.Float())
	assert.Equal(t, res.Report.ExecutiveSummary.TotalRevenue, revenue.Float())
}

func TestRun_Idempotent(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())

	first, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)
	second, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)

	a, err := json.Marshal(first.Report)
	require.NoError(t, err)
	b, err := json.Marshal(second.Report)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_SkipsAreReported(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	res, err := e.Run(context.Background(), request(snapshot.AllProjects))
	require.NoError(t, err)

	d := res.Report.Diagnostics
	assert.Equal(t, 2, d.SkippedCount, "the orphan payment is reported once")
	assert.Equal(t, snapshot.Some, d.Collections[model.CollProjects])
	assert.Equal(t, snapshot.Empty, d.Collections[model.CollRetailProjects])
}

func TestRun_ScopedToProject(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	res, err := e.Run(context.Background(), request("p2"))
	require.NoError(t, err)

	r := res.Report
	assert.Equal(t, "p2", r.Request.ProjectFilter)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, 50_000.0, r.ExecutiveSummary.TotalRevenue)
	assert.Equal(t, 0.0, r.ExecutiveSummary.TotalExpenses)
}

func TestRun_InvalidRequest(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	req := request("all")
	req.End = req.Start.AddDate(0, 0, -1)

	_, err := e.Run(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, uint64(0), e.Generation())
}

type failingGateway struct {
	store.Gateway
	err error
}

func (f failingGateway) ListPayments(context.Context) ([]model.Payment, error) {
	return nil, f.err
}

func TestRun_FetchErrorFailsRun(t *testing.T) {
	gw := failingGateway{Gateway: store.NewMemory(dataset()), err: errors.New("relation payments does not exist")}
	e := New(gw, testOptions())

	_, err := e.Run(context.Background(), request("all"))
	require.Error(t, err)

	var fe *snapshot.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, model.CollPayments, fe.Collection)
	assert.Nil(t, e.Current(), "no zero-filled report is published")
}

// gateGateway blocks the first invoice read until its context is done.
type gateGateway struct {
	store.Gateway
	once    sync.Once
	entered chan struct{}
}

func (g *gateGateway) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.Gateway.ListInvoices(ctx)
}

func TestRun_StaleResultDiscarded(t *testing.T) {
	gw := &gateGateway{Gateway: store.NewMemory(dataset()), entered: make(chan struct{})}
	e := New(gw, testOptions())

	errA := make(chan error, 1)
	go func() {
		_, err := e.Run(context.Background(), request("p1"))
		errA <- err
	}()
	<-gw.entered

	resB, err := e.Run(context.Background(), request("p2"))
	require.NoError(t, err)

	select {
	case err := <-errA:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded run did not return")
	}

	cur := e.Current()
	require.NotNil(t, cur)
	assert.Same(t, resB, cur)
	assert.Equal(t, "p2", cur.Report.Request.ProjectFilter)
	assert.Equal(t, uint64(2), cur.Generation)
}

func TestPublish_OlderGenerationRejected(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	older := e.issue(func() {})
	newer := e.issue(func() {})

	assert.False(t, e.publish(older, &Result{Generation: older}))
	assert.Nil(t, e.Current())
	assert.True(t, e.publish(newer, &Result{Generation: newer}))
	assert.Equal(t, newer, e.Current().Generation)
}

func TestIssue_CancelsPreviousRun(t *testing.T) {
	e := New(store.NewMemory(dataset()), testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	e.issue(cancel)
	e.issue(func() {})

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestBuild_PureAndDeterministic(t *testing.T) {
	snap, err := snapshot.Gather(context.Background(), store.NewMemory(dataset()), testOptions().Fetch)
	require.NoError(t, err)

	a, err := Build(context.Background(), snap, request("all"), now, testOptions())
	require.NoError(t, err)
	b, err := Build(context.Background(), snap, request("all"), now, testOptions())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNewOptions(t *testing.T) {
	cfg := &config.Config{
		Report:  config.ReportConfig{TopN: 3},
		Insight: config.DefaultInsightConfig(),
	}
	opts := NewOptions(cfg)
	assert.Equal(t, 3, opts.TopN)
	assert.NotNil(t, opts.Now)
	assert.NotNil(t, opts.Fetch.Breaker)
}

func TestTracker_StepAndTrack(t *testing.T) {
	tr := &tracker{log: zap.NewNop()}
	ran := false
	tr.step("scope", func() { ran = true })
	err := tr.track("metrics", func() error { return errors.New("boom") })

	require.Error(t, err)
	assert.True(t, ran)
	require.Len(t, tr.stages, 2)
	assert.Equal(t, StageComplete, tr.stages[0].Status)
	assert.Empty(t, tr.stages[0].Error)
	assert.Equal(t, StageFailed, tr.stages[1].Status)
	assert.Equal(t, "boom", tr.stages[1].Error)
}
