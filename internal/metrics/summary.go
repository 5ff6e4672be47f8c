package metrics

import (
	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// ExecutiveSummary is the portfolio headline.
type ExecutiveSummary struct {
	TotalProjects     int     `json:"total_projects"`
	ActiveProjects    int     `json:"active_projects"`
	CompletedProjects int     `json:"completed_projects"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalExpenses     float64 `json:"total_expenses"`
	TotalProfit       float64 `json:"total_profit"`
	ProfitMargin      float64 `json:"profit_margin"`
	TotalUnits        int     `json:"total_units"`
	SoldUnits         int     `json:"sold_units"`
	SalesRate         float64 `json:"sales_rate"`
	TotalEquity       float64 `json:"total_equity"`
	TotalDebt         float64 `json:"total_debt"`
	CashBalance       float64 `json:"cash_balance"`
}

// ComputeExecutiveSummary computes the executive summary.
func ComputeExecutiveSummary(in Input) ExecutiveSummary {
	s := ExecutiveSummary{TotalProjects: len(in.Snap.Projects)}
	for _, p := range in.Snap.Projects {
		switch p.Status {
		case model.ProjectActive:
			s.ActiveProjects++
		case model.ProjectCompleted:
			s.CompletedProjects++
		}
	}

	s.TotalRevenue = in.Facts.TotalRevenue()
	s.TotalExpenses = in.Facts.TotalExpense()
	s.TotalProfit = aggregate.Diff(s.TotalRevenue, s.TotalExpenses)
	s.ProfitMargin = aggregate.Percent(s.TotalProfit, s.TotalRevenue)

	s.TotalUnits, s.SoldUnits = unitCounts(in)
	s.SalesRate = aggregate.PercentOf(s.SoldUnits, s.TotalUnits)
	s.TotalEquity = totalEquity(in)
	s.TotalDebt = totalDebt(in)

	var cash aggregate.Sum
	for _, a := range in.Snap.BankAccounts {
		cash.Add(a.Balance)
	}
	s.CashBalance = cash.Float()
	return s
}

// KPIs are the headline ratios.
type KPIs struct {
	ROI                   float64 `json:"roi"`
	DebtEquityRatio       float64 `json:"debt_equity_ratio"`
	SalesRate             float64 `json:"sales_rate"`
	AvgSalePrice          float64 `json:"avg_sale_price"`
	ConversionRate        float64 `json:"conversion_rate"`
	BudgetUtilization     float64 `json:"budget_utilization"`
	PaymentCompletionRate float64 `json:"payment_completion_rate"`
	ProfitMargin          float64 `json:"profit_margin"`
	OverdueInvoices       int     `json:"overdue_invoices"`
	AvgPricePerSqm        float64 `json:"avg_price_per_sqm"`
}

// ComputeKPIs computes the KPI group.
func ComputeKPIs(in Input) KPIs {
	revenue := in.Facts.TotalRevenue()
	profit := aggregate.Diff(revenue, in.Facts.TotalExpense())
	equity := totalEquity(in)
	total, sold := unitCounts(in)

	k := KPIs{
		ROI:             aggregate.Percent(profit, equity),
		DebtEquityRatio: aggregate.Ratio(totalDebt(in), equity),
		SalesRate:       aggregate.PercentOf(sold, total),
		AvgSalePrice:    aggregate.Ratio(revenue, float64(sold)),
		ConversionRate:  aggregate.PercentOf(buyers(in), len(in.Snap.Customers)),
		ProfitMargin:    aggregate.Percent(profit, revenue),
		AvgPricePerSqm:  avgPricePerSqm(in.Facts.Units),
	}
	k.AvgSalePrice = roundMoney(k.AvgSalePrice)

	value, realized := contractTotals(in)
	k.BudgetUtilization = aggregate.Percent(realized, value)

	paid := 0
	for _, inv := range in.Facts.Invoices {
		if inv.Status == model.InvoicePaid {
			paid++
		}
		if inv.Overdue(in.Now) {
			k.OverdueInvoices++
		}
	}
	k.PaymentCompletionRate = aggregate.PercentOf(paid, len(in.Facts.Invoices))
	return k
}

func unitCounts(in Input) (total, sold int) {
	for _, u := range in.Facts.Units {
		total++
		if u.Status == model.UnitSold {
			sold++
		}
	}
	return total, sold
}

func totalEquity(in Input) float64 {
	var s aggregate.Sum
	for _, inv := range in.Snap.ProjectInvestments {
		s.Add(inv.Amount)
	}
	return s.Float()
}

func totalDebt(in Input) float64 {
	var s aggregate.Sum
	for _, c := range in.Snap.BankCredits {
		s.Add(c.Amount)
	}
	return s.Float()
}

// buyers counts distinct customers with at least one resolved sale.
func buyers(in Input) int {
	seen := make(map[string]bool)
	for _, s := range in.Facts.Sales {
		if s.CustomerID != "" {
			seen[s.CustomerID] = true
		}
	}
	return len(seen)
}

func contractTotals(in Input) (value, realized float64) {
	var v, r aggregate.Sum
	for _, c := range in.Facts.Contracts {
		v.Add(c.Declared)
		r.Add(c.Realized)
	}
	return v.Float(), r.Float()
}

// avgPricePerSqm is listed apartment price per square metre.
func avgPricePerSqm(units []model.Unit) float64 {
	var price, area aggregate.Sum
	for _, u := range units {
		if u.Kind == model.UnitApartment && u.Area > 0 {
			price.Add(u.Price)
			area.Add(u.Area)
		}
	}
	return roundMoney(aggregate.Ratio(price.Float(), area.Float()))
}

func roundMoney(v float64) float64 {
	return aggregate.Total(v)
}
