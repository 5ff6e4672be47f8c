// Package insight turns computed metrics and project classifications into
// ordered recommendations and a risk register.
package insight

import (
	"cmp"
	"fmt"

	"github.com/sells-group/portfolio-report/internal/cashflow"
	"github.com/sells-group/portfolio-report/internal/config"
	"github.com/sells-group/portfolio-report/internal/metrics"
	"github.com/sells-group/portfolio-report/internal/risk"
)

// RiskType identifies the kind of risk.
type RiskType string

const (
	RiskLowSales         RiskType = "low_sales"
	RiskLossMaking       RiskType = "loss_making"
	RiskHighTier         RiskType = "high_risk_projects"
	RiskHighLeverage     RiskType = "high_leverage"
	RiskOverdueInvoices  RiskType = "overdue_invoices"
	RiskBudgetOverrun    RiskType = "budget_overrun"
	RiskTicOverBudget    RiskType = "tic_over_budget"
	RiskNegativeCashFlow RiskType = "negative_cash_flow"
)

// Severity ranks a risk.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Risk is one entry of the risk register.
type Risk struct {
	Type        RiskType `json:"type"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Count       int      `json:"count"`
	Details     []string `json:"details,omitempty"`
}

// Input is what the rules read.
type Input struct {
	Groups   *metrics.Groups
	Projects []risk.ProjectFinancialSummary
	CashFlow cashflow.Totals
}

// Generator evaluates recommendation and risk rules against thresholds.
type Generator struct {
	cfg config.InsightConfig
}

// NewGenerator creates a Generator with the given thresholds.
func NewGenerator(cfg config.InsightConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Recommendations returns one string per rule that fires, in rule order.
// The last two rules always fire when at least one project exists.
func (g *Generator) Recommendations(in Input) []string {
	var out []string
	kpi := in.Groups.KPIs
	sales := in.Groups.SalesPerformance
	acct := in.Groups.AccountingOverview

	if sales.TotalUnits > 0 && kpi.SalesRate < g.cfg.SalesRateThreshold {
		out = append(out, fmt.Sprintf(
			"Sales rate is %.1f%%, below the %.0f%% target: intensify marketing and sales activity.",
			kpi.SalesRate, g.cfg.SalesRateThreshold))
	}
	if sales.AvailableUnits > sales.SoldUnits {
		out = append(out, fmt.Sprintf(
			"Available inventory (%d units) exceeds sold units (%d): review the pricing strategy.",
			sales.AvailableUnits, sales.SoldUnits))
	}
	if sales.TotalRevenue > 0 && kpi.ProfitMargin < g.cfg.MarginThreshold {
		out = append(out, fmt.Sprintf(
			"Profit margin is %.1f%%, below %.0f%%: review the cost structure and contract overruns.",
			kpi.ProfitMargin, g.cfg.MarginThreshold))
	}
	if kpi.DebtEquityRatio > g.cfg.DebtEquityThreshold {
		out = append(out, fmt.Sprintf(
			"Debt-to-equity ratio is %.2f, above %.2f: consider additional equity funding.",
			kpi.DebtEquityRatio, g.cfg.DebtEquityThreshold))
	}
	if acct.Overdue > 0 {
		out = append(out, fmt.Sprintf(
			"%d invoices are overdue with %.2f outstanding: prioritize collections.",
			acct.Overdue, acct.OverdueAmount))
	}
	if kpi.BudgetUtilization > g.cfg.BudgetUtilizationThreshold {
		out = append(out, fmt.Sprintf(
			"Construction budget utilization is %.1f%%, above %.0f%%: tighten cost control on open contracts.",
			kpi.BudgetUtilization, g.cfg.BudgetUtilizationThreshold))
	}

	if len(in.Projects) > 0 {
		out = append(out,
			"Review the best performing projects and apply their sales approach across the portfolio.",
			"Track monthly cash flow against the construction schedule and funding drawdowns.",
		)
	}
	return out
}

// Risks returns one entry per risk rule whose trigger holds, in rule order.
func (g *Generator) Risks(in Input) []Risk {
	var out []Risk
	kpi := in.Groups.KPIs

	if low := risk.Filter(in.Projects, func(p risk.ProjectFinancialSummary) bool {
		return p.SalesRate < g.cfg.LowSalesProjectThreshold
	}); len(low) > 0 {
		out = append(out, Risk{
			Type:        RiskLowSales,
			Severity:    SeverityMedium,
			Title:       "Low sales velocity",
			Description: fmt.Sprintf("%d projects have a sales rate below %.0f%%.", len(low), g.cfg.LowSalesProjectThreshold),
			Count:       len(low),
			Details:     names(low),
		})
	}

	if loss := risk.Filter(in.Projects, func(p risk.ProjectFinancialSummary) bool {
		return p.Profit < 0
	}); len(loss) > 0 {
		out = append(out, Risk{
			Type:        RiskLossMaking,
			Severity:    SeverityHigh,
			Title:       "Loss-making projects",
			Description: fmt.Sprintf("%d projects have expenses above revenue.", len(loss)),
			Count:       len(loss),
			Details:     names(loss),
		})
	}

	if high := risk.Filter(in.Projects, func(p risk.ProjectFinancialSummary) bool {
		return p.Tier == risk.High
	}); len(high) > 0 {
		out = append(out, Risk{
			Type:        RiskHighTier,
			Severity:    SeverityHigh,
			Title:       "High risk projects",
			Description: fmt.Sprintf("%d projects are classified as high risk.", len(high)),
			Count:       len(high),
			Details:     names(high),
		})
	}

	if kpi.DebtEquityRatio > g.cfg.DebtEquityThreshold {
		out = append(out, Risk{
			Type:        RiskHighLeverage,
			Severity:    SeverityMedium,
			Title:       "High leverage",
			Description: fmt.Sprintf("Debt-to-equity ratio %.2f exceeds %.2f.", kpi.DebtEquityRatio, g.cfg.DebtEquityThreshold),
			Count:       1,
		})
	}

	if acct := in.Groups.AccountingOverview; acct.Overdue > 0 {
		out = append(out, Risk{
			Type:        RiskOverdueInvoices,
			Severity:    SeverityMedium,
			Title:       "Overdue invoices",
			Description: fmt.Sprintf("%d invoices are past due with %.2f outstanding.", acct.Overdue, acct.OverdueAmount),
			Count:       acct.Overdue,
		})
	}

	if kpi.BudgetUtilization > 100 {
		out = append(out, Risk{
			Type:        RiskBudgetOverrun,
			Severity:    SeverityHigh,
			Title:       "Construction budget overrun",
			Description: fmt.Sprintf("Realized construction spend is %.1f%% of contract value.", kpi.BudgetUtilization),
			Count:       in.Groups.ConstructionStatus.OverBudgetContracts,
		})
	}

	if tic := in.Groups.TicCostManagement; tic.OverBudget > 0 {
		out = append(out, Risk{
			Type:        RiskTicOverBudget,
			Severity:    SeverityLow,
			Title:       "TIC lines over budget",
			Description: fmt.Sprintf("%d of %d TIC cost lines exceed their budget.", tic.OverBudget, tic.Lines),
			Count:       tic.OverBudget,
		})
	}

	if in.CashFlow.Net < 0 {
		out = append(out, Risk{
			Type:        RiskNegativeCashFlow,
			Severity:    SeverityHigh,
			Title:       "Negative cash flow",
			Description: fmt.Sprintf("Net cash flow over the period is %.2f.", in.CashFlow.Net),
			Count:       1,
		})
	}
	return out
}

func names(projects []risk.ProjectFinancialSummary) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, cmp.Or(p.Name, p.ID))
	}
	return out
}

