package metrics

import (
	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// RetailPortfolio summarizes the retail land portfolio.
type RetailPortfolio struct {
	Projects        int     `json:"projects"`
	LandPlots       int     `json:"land_plots"`
	LandArea        float64 `json:"land_area"`
	LandValue       float64 `json:"land_value"`
	PaidPlots       int     `json:"paid_plots"`
	Phases          int     `json:"phases"`
	PhaseBudget     float64 `json:"phase_budget"`
	ContractValue   float64 `json:"contract_value"`
	Realized        float64 `json:"realized"`
	Utilization     float64 `json:"utilization"`
	AcquisitionCost float64 `json:"acquisition_cost"`
	DevelopmentCost float64 `json:"development_cost"`
	SalesRevenue    float64 `json:"sales_revenue"`
	Profit          float64 `json:"profit"`
	Customers       int     `json:"customers"`
	Suppliers       int     `json:"suppliers"`
}

// ComputeRetailPortfolio computes the retail group. Acquisition and
// development costs are realized spend on contracts of those phase types;
// sales revenue is the contract value of sales-phase contracts.
func ComputeRetailPortfolio(in Input) RetailPortfolio {
	r := RetailPortfolio{
		Projects:  len(in.Snap.RetailProjects),
		LandPlots: len(in.Snap.RetailLandPlots),
		Phases:    len(in.Snap.RetailPhases),
		Customers: len(in.Snap.RetailCustomers),
		Suppliers: len(in.Snap.RetailSuppliers),
	}

	var area, value aggregate.Sum
	for _, p := range in.Snap.RetailLandPlots {
		area.Add(p.Area)
		value.Add(p.PurchasePrice)
		if p.PaymentStatus == model.LandPlotPaid {
			r.PaidPlots++
		}
	}
	r.LandArea = area.Float()
	r.LandValue = value.Float()

	phaseType := make(map[string]model.RetailPhaseType, len(in.Snap.RetailPhases))
	var budget aggregate.Sum
	for _, ph := range in.Snap.RetailPhases {
		phaseType[ph.ID] = ph.PhaseType
		budget.Add(ph.BudgetAllocated)
	}
	r.PhaseBudget = budget.Float()

	var contracts, realized, acquisition, development, sales aggregate.Sum
	for _, c := range in.Snap.RetailContracts {
		contracts.Add(c.ContractAmount)
		realized.Add(c.BudgetRealized)
		switch phaseType[c.PhaseID] {
		case model.RetailAcquisition:
			acquisition.Add(c.BudgetRealized)
		case model.RetailDevelopment:
			development.Add(c.BudgetRealized)
		case model.RetailSales:
			sales.Add(c.ContractAmount)
		}
	}
	r.ContractValue = contracts.Float()
	r.Realized = realized.Float()
	r.Utilization = aggregate.Percent(r.Realized, r.ContractValue)
	r.AcquisitionCost = acquisition.Float()
	r.DevelopmentCost = development.Float()
	r.SalesRevenue = sales.Float()
	r.Profit = aggregate.Diff(r.SalesRevenue, aggregate.Total(r.AcquisitionCost, r.DevelopmentCost))
	return r
}
