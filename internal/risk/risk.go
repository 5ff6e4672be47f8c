// Package risk computes per-project financial summaries, classifies each
// project into a risk tier and ranks projects.
package risk

import (
	"cmp"
	"slices"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// Tier is a project risk classification.
type Tier string

const (
	Low    Tier = "low"
	Medium Tier = "medium"
	High   Tier = "high"
)

// ProjectFinancialSummary is the financial position of one project.
type ProjectFinancialSummary struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Status       model.ProjectStatus `json:"status"`
	Revenue      float64             `json:"revenue"`
	Expense      float64             `json:"expense"`
	Profit       float64             `json:"profit"`
	ProfitMargin float64             `json:"profit_margin"`
	TotalUnits   int                 `json:"total_units"`
	SoldUnits    int                 `json:"sold_units"`
	SalesRate    float64             `json:"sales_rate"`
	Equity       float64             `json:"equity"`
	Debt         float64             `json:"debt"`
	Tier         Tier                `json:"risk_tier"`
}

// Classify assigns a tier. Rules are evaluated in order and the first
// match wins.
func Classify(salesRate, profitMargin float64) Tier {
	switch {
	case salesRate < 20 || profitMargin < 0:
		return High
	case salesRate < 50 || profitMargin < 15:
		return Medium
	default:
		return Low
	}
}

// Summarize builds one summary per project in collection order.
func Summarize(snap *snapshot.Snapshot, facts *aggregate.Facts) []ProjectFinancialSummary {
	type counts struct{ total, sold int }
	units := make(map[string]counts)
	for _, u := range facts.Units {
		c := units[u.ProjectID]
		c.total++
		if u.Status == model.UnitSold {
			c.sold++
		}
		units[u.ProjectID] = c
	}

	equity := make(map[string]*aggregate.Sum)
	for _, inv := range snap.ProjectInvestments {
		sumInto(equity, inv.ProjectID, inv.Amount)
	}
	debt := make(map[string]*aggregate.Sum)
	for _, bc := range snap.BankCredits {
		if bc.ProjectID != nil {
			sumInto(debt, *bc.ProjectID, bc.Amount)
		}
	}

	out := make([]ProjectFinancialSummary, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		c := units[p.ID]
		s := ProjectFinancialSummary{
			ID:         p.ID,
			Name:       p.Name,
			Status:     p.Status,
			Revenue:    facts.ProjectRevenue(p.ID),
			Expense:    facts.ProjectExpense(p.ID),
			TotalUnits: c.total,
			SoldUnits:  c.sold,
			SalesRate:  aggregate.PercentOf(c.sold, c.total),
		}
		if e := equity[p.ID]; e != nil {
			s.Equity = e.Float()
		}
		if d := debt[p.ID]; d != nil {
			s.Debt = d.Float()
		}
		s.Profit = aggregate.Diff(s.Revenue, s.Expense)
		s.ProfitMargin = aggregate.Percent(s.Profit, s.Revenue)
		s.Tier = Classify(s.SalesRate, s.ProfitMargin)
		out = append(out, s)
	}
	return out
}

func sumInto(m map[string]*aggregate.Sum, key string, v float64) {
	s, ok := m[key]
	if !ok {
		s = &aggregate.Sum{}
		m[key] = s
	}
	s.Add(v)
}

// TopByRevenue returns the n projects with the highest revenue. Ties keep
// collection order.
func TopByRevenue(projects []ProjectFinancialSummary, n int) []ProjectFinancialSummary {
	return top(projects, n, func(p ProjectFinancialSummary) float64 { return p.Revenue })
}

// TopByMargin returns the n projects with the highest profit margin.
func TopByMargin(projects []ProjectFinancialSummary, n int) []ProjectFinancialSummary {
	return top(projects, n, func(p ProjectFinancialSummary) float64 { return p.ProfitMargin })
}

func top(projects []ProjectFinancialSummary, n int, key func(ProjectFinancialSummary) float64) []ProjectFinancialSummary {
	sorted := slices.Clone(projects)
	slices.SortStableFunc(sorted, func(a, b ProjectFinancialSummary) int {
		return cmp.Compare(key(b), key(a))
	})
	if n < 0 {
		n = 0
	}
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CountByTier counts projects per tier.
func CountByTier(projects []ProjectFinancialSummary) map[Tier]int {
	out := map[Tier]int{Low: 0, Medium: 0, High: 0}
	for _, p := range projects {
		out[p.Tier]++
	}
	return out
}

// Filter returns the projects matching keep, in order.
func Filter(projects []ProjectFinancialSummary, keep func(ProjectFinancialSummary) bool) []ProjectFinancialSummary {
	var out []ProjectFinancialSummary
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
