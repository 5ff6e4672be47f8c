// Package report defines the Report value and assembles it from the outputs
// of the computation stages. A Report is immutable once assembled.
package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/cashflow"
	"github.com/sells-group/portfolio-report/internal/insight"
	"github.com/sells-group/portfolio-report/internal/metrics"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/risk"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// Report is the complete output of one run.
type Report struct {
	Request     Request   `json:"request"`
	GeneratedAt time.Time `json:"generated_at"`

	ExecutiveSummary   metrics.ExecutiveSummary   `json:"executive_summary"`
	KPIs               metrics.KPIs               `json:"kpis"`
	SalesPerformance   metrics.SalesPerformance   `json:"sales_performance"`
	FundingStructure   metrics.FundingStructure   `json:"funding_structure"`
	ConstructionStatus metrics.ConstructionStatus `json:"construction_status"`
	AccountingOverview metrics.AccountingOverview `json:"accounting_overview"`
	TicCostManagement  metrics.TicCostManagement  `json:"tic_cost_management"`
	OfficeExpenses     metrics.OfficeExpenses     `json:"office_expenses"`
	CompanyCredits     metrics.CompanyCredits     `json:"company_credits"`
	CompanyLoans       metrics.CompanyLoans       `json:"company_loans"`
	BankAccounts       metrics.BankAccounts       `json:"bank_accounts"`
	BuildingsUnits     metrics.BuildingsUnits     `json:"buildings_units"`
	RetailPortfolio    metrics.RetailPortfolio    `json:"retail_portfolio"`
	ContractTypes      []metrics.ContractTypeRow  `json:"contract_types"`

	CashFlow       []cashflow.Bucket              `json:"cash_flow"`
	CashFlowTotals cashflow.Totals                `json:"cash_flow_totals"`
	Projects       []risk.ProjectFinancialSummary `json:"projects"`
	Risks          []insight.Risk                 `json:"risks"`
	Insights       Insights                       `json:"insights"`
	Diagnostics    Diagnostics                    `json:"diagnostics"`
}

// Insights holds the ranked projects and the recommendations.
type Insights struct {
	TopProjects     []risk.ProjectFinancialSummary `json:"top_projects"`
	TopByMargin     []risk.ProjectFinancialSummary `json:"top_by_margin"`
	Recommendations []string                       `json:"recommendations"`
}

// Diagnostics reports what was left out of the run and how each collection
// was read.
type Diagnostics struct {
	Skipped      []aggregate.Skip                    `json:"skipped"`
	SkippedCount int                                 `json:"skipped_count"`
	Collections  map[model.Collection]snapshot.State `json:"collections"`
}

// Parts are the stage outputs a Report is assembled from.
type Parts struct {
	Request     Request
	GeneratedAt time.Time

	Groups          *metrics.Groups
	CashFlow        []cashflow.Bucket
	CashFlowTotals  cashflow.Totals
	Projects        []risk.ProjectFinancialSummary
	TopProjects     []risk.ProjectFinancialSummary
	TopByMargin     []risk.ProjectFinancialSummary
	Recommendations []string
	Risks           []insight.Risk

	Skips  []aggregate.Skip
	States map[model.Collection]snapshot.State
}

// Assemble copies every part into its section. It fails if the metric
// groups are missing. Nil lists become empty so that the encoded Report
// has the same shape on every run.
func Assemble(p Parts) (*Report, error) {
	if p.Groups == nil {
		return nil, eris.New("report: metric groups missing")
	}
	if p.States == nil {
		return nil, eris.New("report: collection states missing")
	}

	g := p.Groups
	skips := dedupSkips(p.Skips)
	return &Report{
		Request:     p.Request,
		GeneratedAt: p.GeneratedAt,

		ExecutiveSummary:   g.ExecutiveSummary,
		KPIs:               g.KPIs,
		SalesPerformance:   g.SalesPerformance,
		FundingStructure:   g.FundingStructure,
		ConstructionStatus: g.ConstructionStatus,
		AccountingOverview: g.AccountingOverview,
		TicCostManagement:  g.TicCostManagement,
		OfficeExpenses:     g.OfficeExpenses,
		CompanyCredits:     g.CompanyCredits,
		CompanyLoans:       g.CompanyLoans,
		BankAccounts:       g.BankAccounts,
		BuildingsUnits:     g.BuildingsUnits,
		RetailPortfolio:    g.RetailPortfolio,
		ContractTypes:      nonNil(g.ContractTypes),

		CashFlow:       nonNil(p.CashFlow),
		CashFlowTotals: p.CashFlowTotals,
		Projects:       nonNil(p.Projects),
		Risks:          nonNil(p.Risks),
		Insights: Insights{
			TopProjects:     nonNil(p.TopProjects),
			TopByMargin:     nonNil(p.TopByMargin),
			Recommendations: nonNil(p.Recommendations),
		},
		Diagnostics: Diagnostics{
			Skipped:      skips,
			SkippedCount: len(skips),
			Collections:  p.States,
		},
	}, nil
}

// dedupSkips drops repeated (collection, record, reason) triples and sorts
// the rest. Several stages may report the same record.
func dedupSkips(in []aggregate.Skip) []aggregate.Skip {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b aggregate.Skip) int {
		return cmp.Or(
			cmp.Compare(a.Collection, b.Collection),
			cmp.Compare(a.RecordID, b.RecordID),
			cmp.Compare(a.Reason, b.Reason),
		)
	})
	return nonNil(slices.Compact(out))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
