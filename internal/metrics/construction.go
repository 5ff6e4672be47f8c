package metrics

import (
	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// ConstructionStatus summarizes contracts, phases, milestones and work logs.
type ConstructionStatus struct {
	Contracts            int            `json:"contracts"`
	ContractsByStatus    []Breakdown    `json:"contracts_by_status"`
	ContractValue        float64        `json:"contract_value"`
	BudgetRealized       float64        `json:"budget_realized"`
	BudgetUtilization    float64        `json:"budget_utilization"`
	ResolvedExpense      float64        `json:"resolved_expense"`
	OverrunContracts     int            `json:"overrun_contracts"`
	OverrunAmount        float64        `json:"overrun_amount"`
	OverBudgetContracts  int            `json:"over_budget_contracts"`
	Phases               int            `json:"phases"`
	PhasesByStatus       []Breakdown    `json:"phases_by_status"`
	PhaseBudget          float64        `json:"phase_budget"`
	ActiveSubcontractors int            `json:"active_subcontractors"`
	Milestones           MilestoneStats `json:"milestones"`
	WorkLogs             WorkLogStats   `json:"work_logs"`
}

// MilestoneStats counts subcontractor milestones.
type MilestoneStats struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Completed int     `json:"completed"`
	Paid      int     `json:"paid"`
	Overdue   int     `json:"overdue"`
	PaidValue float64 `json:"paid_value"`
}

// WorkLogStats counts work logs.
type WorkLogStats struct {
	Total   int     `json:"total"`
	InRange int     `json:"in_range"`
	Hours   float64 `json:"hours"`
	Blocked int     `json:"blocked"`
}

// ComputeConstructionStatus computes the construction status group.
func ComputeConstructionStatus(in Input) ConstructionStatus {
	c := ConstructionStatus{
		Contracts: len(in.Facts.Contracts),
		Phases:    len(in.Snap.ProjectPhases),
	}

	statuses := newBreakdown(
		string(model.ContractDraft), string(model.ContractActive),
		string(model.ContractCompleted), string(model.ContractTerminated),
	)
	var expense, overrun aggregate.Sum
	for _, f := range in.Facts.Contracts {
		statuses.add(or(string(f.Status), unassigned), f.Declared)
		expense.Add(f.Expense)
		if f.OverBudget() {
			c.OverBudgetContracts++
		}
		if o := f.Overrun(); o > 0 {
			c.OverrunContracts++
			overrun.Add(o)
		}
	}
	c.ContractsByStatus = statuses.list()
	c.ContractValue, c.BudgetRealized = contractTotals(in)
	c.BudgetUtilization = aggregate.Percent(c.BudgetRealized, c.ContractValue)
	c.ResolvedExpense = expense.Float()
	c.OverrunAmount = overrun.Float()

	phases := newBreakdown()
	var phaseBudget aggregate.Sum
	for _, p := range in.Snap.ProjectPhases {
		phases.add(or(p.Status, unassigned), p.BudgetAllocated)
		phaseBudget.Add(p.BudgetAllocated)
	}
	c.PhasesByStatus = phases.list()
	c.PhaseBudget = phaseBudget.Float()

	for _, s := range in.Snap.Subcontractors {
		if s.Status == model.StatusActive {
			c.ActiveSubcontractors++
		}
	}

	c.Milestones = milestoneStats(in)
	c.WorkLogs = workLogStats(in)
	return c
}

func milestoneStats(in Input) MilestoneStats {
	amounts := make(map[string]float64, len(in.Snap.Contracts))
	for _, k := range in.Snap.Contracts {
		amounts[k.ID] = k.Amount
	}

	m := MilestoneStats{Total: len(in.Snap.SubcontractorMilestones)}
	var paid aggregate.Sum
	for _, ms := range in.Snap.SubcontractorMilestones {
		switch ms.Status {
		case model.MilestonePending:
			m.Pending++
		case model.MilestoneCompleted:
			m.Completed++
		case model.MilestonePaid:
			m.Paid++
			paid.Add(amounts[ms.ContractID] * ms.Percentage / 100)
		}
		if ms.Status != model.MilestonePaid && ms.DueDate != nil && ms.DueDate.Before(in.Now) {
			m.Overdue++
		}
	}
	m.PaidValue = paid.Float()
	return m
}

func workLogStats(in Input) WorkLogStats {
	w := WorkLogStats{Total: len(in.Snap.WorkLogs)}
	var hours aggregate.Sum
	for _, l := range in.Snap.WorkLogs {
		hours.Add(l.Hours)
		if in.Range.Contains(l.WorkDate) {
			w.InRange++
		}
		if l.Status == model.WorkLogBlocked {
			w.Blocked++
		}
	}
	w.Hours = hours.Float()
	return w
}

// ContractTypeRow is the contract count and value of one contract type.
type ContractTypeRow struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// ComputeContractTypes returns one row per contract type in collection
// order, followed by an unassigned row when some contracts have no known
// type.
func ComputeContractTypes(in Input) []ContractTypeRow {
	rows := make([]ContractTypeRow, len(in.Snap.ContractTypes))
	sums := make([]aggregate.Sum, len(rows)+1)
	index := make(map[string]int, len(rows))
	for i, t := range in.Snap.ContractTypes {
		rows[i] = ContractTypeRow{ID: t.ID, Name: t.Name}
		index[t.ID] = i
	}

	other := ContractTypeRow{ID: unassigned, Name: unassigned}
	for _, f := range in.Facts.Contracts {
		i, ok := index[f.TypeID]
		if !ok {
			other.Count++
			sums[len(rows)].Add(f.Declared)
			continue
		}
		rows[i].Count++
		sums[i].Add(f.Declared)
	}
	for i := range rows {
		rows[i].Value = sums[i].Float()
	}
	if other.Count > 0 {
		other.Value = sums[len(rows)].Float()
		rows = append(rows, other)
	}
	return rows
}

// TicCostManagement compares TIC budget lines with actual spend.
type TicCostManagement struct {
	Lines       int              `json:"lines"`
	Budget      float64          `json:"budget"`
	Spent       float64          `json:"spent"`
	Variance    float64          `json:"variance"`
	Utilization float64          `json:"utilization"`
	OverBudget  int              `json:"over_budget"`
	Categories  []TicCategoryRow `json:"categories"`
}

// TicCategoryRow is the TIC position of one category.
type TicCategoryRow struct {
	Category    string  `json:"category"`
	Lines       int     `json:"lines"`
	Budget      float64 `json:"budget"`
	Spent       float64 `json:"spent"`
	Variance    float64 `json:"variance"`
	Utilization float64 `json:"utilization"`
}

// ComputeTicCostManagement computes the TIC cost group. Variance is budget
// minus spend, so overspend is negative.
func ComputeTicCostManagement(in Input) TicCostManagement {
	t := TicCostManagement{Lines: len(in.Snap.TicCostStructures)}

	type acc struct {
		lines         int
		budget, spent aggregate.Sum
	}
	var order []string
	cats := make(map[string]*acc)
	var budget, spent aggregate.Sum
	for _, line := range in.Snap.TicCostStructures {
		budget.Add(line.BudgetAmount)
		spent.Add(line.SpentAmount)
		if line.SpentAmount > line.BudgetAmount {
			t.OverBudget++
		}
		key := or(line.Category, unassigned)
		a, ok := cats[key]
		if !ok {
			a = &acc{}
			cats[key] = a
			order = append(order, key)
		}
		a.lines++
		a.budget.Add(line.BudgetAmount)
		a.spent.Add(line.SpentAmount)
	}

	t.Budget = budget.Float()
	t.Spent = spent.Float()
	t.Variance = aggregate.Diff(t.Budget, t.Spent)
	t.Utilization = aggregate.Percent(t.Spent, t.Budget)
	for _, key := range order {
		a := cats[key]
		row := TicCategoryRow{Category: key, Lines: a.lines, Budget: a.budget.Float(), Spent: a.spent.Float()}
		row.Variance = aggregate.Diff(row.Budget, row.Spent)
		row.Utilization = aggregate.Percent(row.Spent, row.Budget)
		t.Categories = append(t.Categories, row)
	}
	return t
}
