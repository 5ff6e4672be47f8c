package render

import (
	"cmp"

	"github.com/sells-group/portfolio-report/internal/metrics"
	"github.com/sells-group/portfolio-report/internal/report"
	"github.com/sells-group/portfolio-report/internal/risk"
)

// Layout lays out every section of r as pages in a fixed order.
func Layout(r *report.Report) []Page {
	pages := []Page{
		overviewPage(r),
		salesPage(r),
		fundingPage(r),
		constructionPage(r),
		accountingPage(r),
		cashFlowPage(r),
		projectsPage(r),
		retailPage(r),
		insightsPage(r),
	}
	if r.Diagnostics.SkippedCount > 0 {
		pages = append(pages, diagnosticsPage(r))
	}
	return pages
}

func overviewPage(r *report.Report) Page {
	s, k := r.ExecutiveSummary, r.KPIs
	return Page{Title: "Executive summary", Blocks: []Directive{
		Section{Title: "Portfolio"},
		KPITile{Label: "Projects", Value: Count(s.TotalProjects)},
		KPITile{Label: "Active projects", Value: Count(s.ActiveProjects)},
		KPITile{Label: "Total revenue", Value: Money(s.TotalRevenue)},
		KPITile{Label: "Total expenses", Value: Money(s.TotalExpenses)},
		KPITile{Label: "Profit", Value: Money(s.TotalProfit)},
		KPITile{Label: "Profit margin", Value: Percent(s.ProfitMargin)},
		KPITile{Label: "Units sold", Value: Count(s.SoldUnits)},
		KPITile{Label: "Cash balance", Value: Money(s.CashBalance)},
		Section{Title: "Key indicators"},
		KPITile{Label: "ROI", Value: Percent(k.ROI)},
		KPITile{Label: "Debt to equity", Value: Ratio(k.DebtEquityRatio)},
		KPITile{Label: "Average sale price", Value: Money(k.AvgSalePrice)},
		KPITile{Label: "Price per m2", Value: Money(k.AvgPricePerSqm)},
		KPITile{Label: "Overdue invoices", Value: Count(k.OverdueInvoices)},
		Progress{Label: "Sales rate", Percent: k.SalesRate},
		Progress{Label: "Conversion rate", Percent: k.ConversionRate},
		Progress{Label: "Budget utilization", Percent: k.BudgetUtilization},
		Progress{Label: "Payment completion", Percent: k.PaymentCompletionRate},
	}}
}

func salesPage(r *report.Report) Page {
	s, b := r.SalesPerformance, r.BuildingsUnits

	kinds := make([][]Value, 0, len(s.ByKind))
	for _, k := range s.ByKind {
		kinds = append(kinds, []Value{Text(string(k.Kind)), Count(k.Total), Count(k.Sold), Percent(k.SalesRate), Money(k.Revenue)})
	}
	buildings := make([][]Value, 0, len(b.Rows))
	for _, row := range b.Rows {
		buildings = append(buildings, []Value{Text(row.Name), Count(row.Units), Count(row.Sold), Percent(row.SalesRate)})
	}

	return Page{Title: "Sales", Blocks: []Directive{
		Section{Title: "Sales performance"},
		KPITile{Label: "Units", Value: Count(s.TotalUnits)},
		KPITile{Label: "Available", Value: Count(s.AvailableUnits)},
		KPITile{Label: "Reserved", Value: Count(s.ReservedUnits)},
		KPITile{Label: "Sold", Value: Count(s.SoldUnits)},
		KPITile{Label: "Revenue", Value: Money(s.TotalRevenue)},
		KPITile{Label: "Revenue in period", Value: Money(s.RevenueInRange)},
		Progress{Label: "Sales rate", Percent: s.SalesRate},
		Table{
			Title:   "By unit kind",
			Columns: []string{"Kind", "Units", "Sold", "Sales rate", "Revenue"},
			Rows:    kinds,
		},
		Chart{Title: "Sales by payment method", Kind: ChartPie, Unit: KindMoney, Series: []Series{breakdownSeries("Revenue", s.ByPaymentMethod)}},
		Section{Title: "Buildings and units"},
		KPITile{Label: "Buildings", Value: Count(b.Buildings)},
		KPITile{Label: "Apartments", Value: Count(b.Apartments)},
		KPITile{Label: "Garages", Value: Count(b.Garages)},
		KPITile{Label: "Storages", Value: Count(b.Storages)},
		Table{
			Title:   "Buildings",
			Columns: []string{"Building", "Units", "Sold", "Sales rate"},
			Rows:    buildings,
		},
	}}
}

func fundingPage(r *report.Report) Page {
	f, c, l, a := r.FundingStructure, r.CompanyCredits, r.CompanyLoans, r.BankAccounts

	credits := make([][]Value, 0, len(c.Rows))
	for _, row := range c.Rows {
		credits = append(credits, []Value{
			Text(row.Name), Text(row.Bank), Money(row.Amount), Money(row.Used),
			Money(row.Outstanding), Percent(row.Utilization), Percent(row.InterestRate),
		})
	}

	return Page{Title: "Funding", Blocks: []Directive{
		Section{Title: "Funding structure"},
		KPITile{Label: "Equity", Value: Money(f.TotalEquity)},
		KPITile{Label: "Debt", Value: Money(f.TotalDebt)},
		KPITile{Label: "Debt to equity", Value: Ratio(f.DebtEquityRatio)},
		Chart{Title: "Equity and debt", Kind: ChartPie, Unit: KindMoney, Series: []Series{{
			Name:   "Funding",
			Points: []Point{{Label: "Equity", Value: f.TotalEquity}, {Label: "Debt", Value: f.TotalDebt}},
		}}},
		Chart{Title: "Debt by bank", Kind: ChartBar, Unit: KindMoney, Series: []Series{breakdownSeries("Debt", f.ByBank)}},
		Section{Title: "Company credits"},
		KPITile{Label: "Credit amount", Value: Money(c.TotalAmount)},
		KPITile{Label: "Outstanding", Value: Money(c.Outstanding)},
		KPITile{Label: "Weighted interest", Value: Percent(c.WeightedInterestRate)},
		Progress{Label: "Credit utilization", Percent: c.Utilization},
		Table{
			Title:   "Credits",
			Columns: []string{"Credit", "Bank", "Amount", "Used", "Outstanding", "Utilization", "Interest"},
			Rows:    credits,
		},
		Section{Title: "Company loans"},
		KPITile{Label: "Loans", Value: Count(l.Loans)},
		KPITile{Label: "Outstanding", Value: Money(l.Outstanding)},
		Progress{Label: "Repaid", Percent: l.RepaymentRate},
		Section{Title: "Bank accounts"},
		KPITile{Label: "Accounts", Value: Count(a.Accounts)},
		KPITile{Label: "Total balance", Value: Money(a.TotalBalance)},
		breakdownTable("Balance by bank", "Bank", a.ByBank),
	}}
}

func constructionPage(r *report.Report) Page {
	c, tic := r.ConstructionStatus, r.TicCostManagement

	types := make([][]Value, 0, len(r.ContractTypes))
	for _, t := range r.ContractTypes {
		types = append(types, []Value{Text(t.Name), Count(t.Count), Money(t.Value)})
	}
	categories := make([][]Value, 0, len(tic.Categories))
	for _, cat := range tic.Categories {
		categories = append(categories, []Value{
			Text(cat.Category), Count(cat.Lines), Money(cat.Budget), Money(cat.Spent), Money(cat.Variance), Percent(cat.Utilization),
		})
	}

	return Page{Title: "Construction", Blocks: []Directive{
		Section{Title: "Construction status"},
		KPITile{Label: "Contracts", Value: Count(c.Contracts)},
		KPITile{Label: "Contract value", Value: Money(c.ContractValue)},
		KPITile{Label: "Realized", Value: Money(c.BudgetRealized)},
		KPITile{Label: "Overrun contracts", Value: Count(c.OverrunContracts)},
		KPITile{Label: "Over-budget contracts", Value: Count(c.OverBudgetContracts)},
		KPITile{Label: "Overrun amount", Value: Money(c.OverrunAmount)},
		KPITile{Label: "Active subcontractors", Value: Count(c.ActiveSubcontractors)},
		Progress{Label: "Budget utilization", Percent: c.BudgetUtilization},
		breakdownTable("Contracts by status", "Status", c.ContractsByStatus),
		breakdownTable("Phases by status", "Status", c.PhasesByStatus),
		Table{
			Title:   "Milestones",
			Columns: []string{"Total", "Pending", "Completed", "Paid", "Overdue", "Paid value"},
			Rows: [][]Value{{
				Count(c.Milestones.Total), Count(c.Milestones.Pending), Count(c.Milestones.Completed),
				Count(c.Milestones.Paid), Count(c.Milestones.Overdue), Money(c.Milestones.PaidValue),
			}},
		},
		Table{
			Title:   "Contract types",
			Columns: []string{"Type", "Contracts", "Value"},
			Rows:    types,
		},
		Section{Title: "TIC cost management"},
		KPITile{Label: "Budget", Value: Money(tic.Budget)},
		KPITile{Label: "Spent", Value: Money(tic.Spent)},
		KPITile{Label: "Variance", Value: Money(tic.Variance)},
		Progress{Label: "TIC utilization", Percent: tic.Utilization},
		Table{
			Title:   "TIC categories",
			Columns: []string{"Category", "Lines", "Budget", "Spent", "Variance", "Utilization"},
			Rows:    categories,
		},
	}}
}

func accountingPage(r *report.Report) Page {
	a, o := r.AccountingOverview, r.OfficeExpenses

	suppliers := make([][]Value, 0, len(o.TopSuppliers))
	for _, s := range o.TopSuppliers {
		suppliers = append(suppliers, []Value{Text(s.Name), Text(s.Category), Count(s.Invoices), Money(s.Amount)})
	}

	return Page{Title: "Accounting", Blocks: []Directive{
		Section{Title: "Invoices"},
		KPITile{Label: "Invoices", Value: Count(a.Invoices)},
		KPITile{Label: "Invoiced", Value: Money(a.TotalInvoiced)},
		KPITile{Label: "Paid", Value: Money(a.TotalPaid)},
		KPITile{Label: "Outstanding", Value: Money(a.Outstanding)},
		KPITile{Label: "Overdue", Value: Count(a.Overdue)},
		KPITile{Label: "Overdue amount", Value: Money(a.OverdueAmount)},
		KPITile{Label: "VAT", Value: Money(a.TotalVAT)},
		Progress{Label: "Payment completion", Percent: a.PaymentCompletionRate},
		Chart{Title: "Invoice status", Kind: ChartPie, Unit: KindCount, Series: []Series{{
			Name: "Invoices",
			Points: []Point{
				{Label: "Unpaid", Value: float64(a.Unpaid)},
				{Label: "Partially paid", Value: float64(a.PartiallyPaid)},
				{Label: "Paid", Value: float64(a.Paid)},
			},
		}}},
		Section{Title: "Office expenses"},
		KPITile{Label: "Suppliers", Value: Count(o.Suppliers)},
		KPITile{Label: "Total", Value: Money(o.TotalAmount)},
		KPITile{Label: "Outstanding", Value: Money(o.Outstanding)},
		Table{
			Title:   "Top suppliers",
			Columns: []string{"Supplier", "Category", "Invoices", "Amount"},
			Rows:    suppliers,
		},
	}}
}

func cashFlowPage(r *report.Report) Page {
	rows := make([][]Value, 0, len(r.CashFlow))
	in := Series{Name: "Inflow"}
	out := Series{Name: "Outflow"}
	net := Series{Name: "Net"}
	for _, b := range r.CashFlow {
		rows = append(rows, []Value{Text(b.Month), Money(b.Inflow), Money(b.Outflow), Money(b.Net)})
		in.Points = append(in.Points, Point{Label: b.Month, Value: b.Inflow})
		out.Points = append(out.Points, Point{Label: b.Month, Value: b.Outflow})
		net.Points = append(net.Points, Point{Label: b.Month, Value: b.Net})
	}
	t := r.CashFlowTotals

	return Page{Title: "Cash flow", Blocks: []Directive{
		Section{Title: "Cash flow"},
		KPITile{Label: "Inflow", Value: Money(t.Inflow)},
		KPITile{Label: "Outflow", Value: Money(t.Outflow)},
		KPITile{Label: "Net", Value: Money(t.Net)},
		Chart{Title: "Monthly cash flow", Kind: ChartLine, Unit: KindMoney, Series: []Series{in, out, net}},
		Table{
			Title:   "Monthly cash flow",
			Columns: []string{"Month", "Inflow", "Outflow", "Net"},
			Rows:    rows,
		},
	}}
}

func projectsPage(r *report.Report) Page {
	tiers := risk.CountByTier(r.Projects)
	return Page{Title: "Projects", Blocks: []Directive{
		Section{Title: "Project risk"},
		Chart{Title: "Projects by risk tier", Kind: ChartPie, Unit: KindCount, Series: []Series{{
			Name: "Projects",
			Points: []Point{
				{Label: "Low", Value: float64(tiers[risk.Low])},
				{Label: "Medium", Value: float64(tiers[risk.Medium])},
				{Label: "High", Value: float64(tiers[risk.High])},
			},
		}}},
		projectTable("Projects", r.Projects),
		projectTable("Highest margin", r.Insights.TopByMargin),
		Chart{Title: "Revenue by project", Kind: ChartBar, Unit: KindMoney, Series: []Series{projectSeries(r.Projects)}},
	}}
}

func retailPage(r *report.Report) Page {
	p := r.RetailPortfolio
	return Page{Title: "Retail", Blocks: []Directive{
		Section{Title: "Retail portfolio"},
		KPITile{Label: "Projects", Value: Count(p.Projects)},
		KPITile{Label: "Land plots", Value: Count(p.LandPlots)},
		KPITile{Label: "Land area", Value: Ratio(p.LandArea)},
		KPITile{Label: "Land value", Value: Money(p.LandValue)},
		KPITile{Label: "Acquisition cost", Value: Money(p.AcquisitionCost)},
		KPITile{Label: "Development cost", Value: Money(p.DevelopmentCost)},
		KPITile{Label: "Sales revenue", Value: Money(p.SalesRevenue)},
		KPITile{Label: "Profit", Value: Money(p.Profit)},
		Progress{Label: "Contract utilization", Percent: p.Utilization},
	}}
}

func insightsPage(r *report.Report) Page {
	risks := make([][]Value, 0, len(r.Risks))
	for _, rk := range r.Risks {
		risks = append(risks, []Value{Text(string(rk.Severity)), Text(rk.Title), Text(rk.Description), Count(rk.Count)})
	}
	recs := make([][]Value, 0, len(r.Insights.Recommendations))
	for _, rec := range r.Insights.Recommendations {
		recs = append(recs, []Value{Text(rec)})
	}

	return Page{Title: "Risks and insights", Blocks: []Directive{
		Section{Title: "Top projects"},
		projectTable("Top projects by revenue", r.Insights.TopProjects),
		Section{Title: "Risks"},
		Table{Title: "Risk register", Columns: []string{"Severity", "Risk", "Description", "Count"}, Rows: risks},
		Section{Title: "Recommendations"},
		Table{Title: "Recommendations", Columns: []string{"Recommendation"}, Rows: recs},
	}}
}

func diagnosticsPage(r *report.Report) Page {
	rows := make([][]Value, 0, len(r.Diagnostics.Skipped))
	for _, s := range r.Diagnostics.Skipped {
		rows = append(rows, []Value{Text(string(s.Collection)), Text(s.RecordID), Text(s.Reason)})
	}
	return Page{Title: "Diagnostics", Blocks: []Directive{
		Section{Title: "Skipped records"},
		KPITile{Label: "Skipped", Value: Count(r.Diagnostics.SkippedCount)},
		Table{Title: "Skipped records", Columns: []string{"Collection", "Record", "Reason"}, Rows: rows},
	}}
}

func projectTable(title string, projects []risk.ProjectFinancialSummary) Table {
	rows := make([][]Value, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []Value{
			Text(cmp.Or(p.Name, p.ID)), Money(p.Revenue), Money(p.Expense), Money(p.Profit),
			Percent(p.ProfitMargin), Percent(p.SalesRate), Text(string(p.Tier)),
		})
	}
	return Table{
		Title:   title,
		Columns: []string{"Project", "Revenue", "Expense", "Profit", "Margin", "Sales rate", "Risk"},
		Rows:    rows,
	}
}

func projectSeries(projects []risk.ProjectFinancialSummary) Series {
	s := Series{Name: "Revenue"}
	for _, p := range projects {
		s.Points = append(s.Points, Point{Label: cmp.Or(p.Name, p.ID), Value: p.Revenue})
	}
	return s
}

func breakdownSeries(name string, rows []metrics.Breakdown) Series {
	s := Series{Name: name}
	for _, b := range rows {
		s.Points = append(s.Points, Point{Label: b.Key, Value: b.Amount})
	}
	return s
}

func breakdownTable(title, key string, rows []metrics.Breakdown) Table {
	out := make([][]Value, 0, len(rows))
	for _, b := range rows {
		out = append(out, []Value{Text(b.Key), Count(b.Count), Money(b.Amount)})
	}
	return Table{Title: title, Columns: []string{key, "Count", "Amount"}, Rows: out}
}
