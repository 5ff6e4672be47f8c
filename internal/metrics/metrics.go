// Package metrics computes the named metric groups of a report. Each group
// is a pure read of the same snapshot and facts; groups never share mutable
// state and may run in any order.
package metrics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/cashflow"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// Input is everything a metric group may read.
type Input struct {
	Snap  *snapshot.Snapshot
	Facts *aggregate.Facts
	Range cashflow.Range
	Now   time.Time
}

// Groups holds every metric group of one run.
type Groups struct {
	ExecutiveSummary   ExecutiveSummary   `json:"executive_summary"`
	KPIs               KPIs               `json:"kpis"`
	SalesPerformance   SalesPerformance   `json:"sales_performance"`
	FundingStructure   FundingStructure   `json:"funding_structure"`
	ConstructionStatus ConstructionStatus `json:"construction_status"`
	AccountingOverview AccountingOverview `json:"accounting_overview"`
	TicCostManagement  TicCostManagement  `json:"tic_cost_management"`
	OfficeExpenses     OfficeExpenses     `json:"office_expenses"`
	CompanyCredits     CompanyCredits     `json:"company_credits"`
	CompanyLoans       CompanyLoans       `json:"company_loans"`
	BankAccounts       BankAccounts       `json:"bank_accounts"`
	BuildingsUnits     BuildingsUnits     `json:"buildings_units"`
	RetailPortfolio    RetailPortfolio    `json:"retail_portfolio"`
	ContractTypes      []ContractTypeRow  `json:"contract_types"`
}

// ComputeAll runs every group concurrently. It only fails if ctx is done.
func ComputeAll(ctx context.Context, in Input) (*Groups, error) {
	out := &Groups{}
	g, gctx := errgroup.WithContext(ctx)

	run := func(fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	run(func() { out.ExecutiveSummary = ComputeExecutiveSummary(in) })
	run(func() { out.KPIs = ComputeKPIs(in) })
	run(func() { out.SalesPerformance = ComputeSalesPerformance(in) })
	run(func() { out.FundingStructure = ComputeFundingStructure(in) })
	run(func() { out.ConstructionStatus = ComputeConstructionStatus(in) })
	run(func() { out.AccountingOverview = ComputeAccountingOverview(in) })
	run(func() { out.TicCostManagement = ComputeTicCostManagement(in) })
	run(func() { out.OfficeExpenses = ComputeOfficeExpenses(in) })
	run(func() { out.CompanyCredits = ComputeCompanyCredits(in) })
	run(func() { out.CompanyLoans = ComputeCompanyLoans(in) })
	run(func() { out.BankAccounts = ComputeBankAccounts(in) })
	run(func() { out.BuildingsUnits = ComputeBuildingsUnits(in) })
	run(func() { out.RetailPortfolio = ComputeRetailPortfolio(in) })
	run(func() { out.ContractTypes = ComputeContractTypes(in) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Breakdown is one keyed row of a count and amount histogram.
type Breakdown struct {
	Key    string  `json:"key"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// breakdown accumulates rows in first-seen key order.
type breakdown struct {
	keys []string
	rows map[string]*breakdownRow
}

type breakdownRow struct {
	count int
	sum   aggregate.Sum
}

func newBreakdown(keys ...string) *breakdown {
	b := &breakdown{rows: make(map[string]*breakdownRow)}
	for _, k := range keys {
		b.row(k)
	}
	return b
}

func (b *breakdown) row(key string) *breakdownRow {
	r, ok := b.rows[key]
	if !ok {
		r = &breakdownRow{}
		b.rows[key] = r
		b.keys = append(b.keys, key)
	}
	return r
}

func (b *breakdown) add(key string, amount float64) {
	r := b.row(key)
	r.count++
	r.sum.Add(amount)
}

func (b *breakdown) count(key string) int {
	if r, ok := b.rows[key]; ok {
		return r.count
	}
	return 0
}

func (b *breakdown) list() []Breakdown {
	out := make([]Breakdown, 0, len(b.keys))
	for _, k := range b.keys {
		r := b.rows[k]
		out = append(out, Breakdown{Key: k, Count: r.count, Amount: r.sum.Float()})
	}
	return out
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

const unassigned = "unassigned"
