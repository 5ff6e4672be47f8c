package snapshot

import (
	"maps"

	"github.com/sells-group/portfolio-report/internal/model"
)

// AllProjects is the project filter that disables scoping.
const AllProjects = "all"

// Scope returns a new snapshot restricted to one project. Company-level,
// reference and retail collections are left as they are. An unknown project
// id yields an empty project set rather than an error.
func Scope(snap *Snapshot, projectID string) *Snapshot {
	if projectID == "" || projectID == AllProjects {
		return snap
	}

	out := &Snapshot{Dataset: snap.Dataset, States: maps.Clone(snap.States)}
	ds := &out.Dataset
	in := &snap.Dataset

	ds.Projects = filter(in.Projects, func(p model.Project) bool { return p.ID == projectID })
	ds.Buildings = filter(in.Buildings, func(b model.Building) bool { return b.ProjectID == projectID })
	ds.Units = filter(in.Units, func(u model.Unit) bool { return u.ProjectID == projectID })
	units := idSet(ds.Units, func(u model.Unit) string { return u.ID })
	ds.Sales = filter(in.Sales, func(s model.Sale) bool { return units[s.UnitID] })

	ds.Contracts = filter(in.Contracts, func(c model.Contract) bool { return c.ProjectID == projectID })
	contracts := idSet(ds.Contracts, func(c model.Contract) string { return c.ID })
	ds.ProjectPhases = filter(in.ProjectPhases, func(p model.ProjectPhase) bool { return p.ProjectID == projectID })
	ds.WorkLogs = filter(in.WorkLogs, func(w model.WorkLog) bool { return contracts[w.ContractID] })
	ds.SubcontractorMilestones = filter(in.SubcontractorMilestones, func(m model.SubcontractorMilestone) bool {
		return contracts[m.ContractID]
	})

	ds.Invoices = filter(in.Invoices, func(i model.Invoice) bool {
		return is(i.ProjectID, projectID) || (i.ContractID != nil && contracts[*i.ContractID])
	})
	invoices := idSet(ds.Invoices, func(i model.Invoice) string { return i.ID })
	ds.Payments = filter(in.Payments, func(p model.Payment) bool { return invoices[p.InvoiceID] })

	ds.ProjectInvestments = filter(in.ProjectInvestments, func(p model.ProjectInvestment) bool { return p.ProjectID == projectID })
	ds.BankCredits = filter(in.BankCredits, func(c model.BankCredit) bool { return is(c.ProjectID, projectID) })
	ds.CreditAllocations = filter(in.CreditAllocations, func(a model.CreditAllocation) bool { return is(a.ProjectID, projectID) })
	ds.TicCostStructures = filter(in.TicCostStructures, func(t model.TicCostStructure) bool { return t.ProjectID == projectID })

	for coll, n := range out.Counts() {
		if out.States[coll] == Some && n == 0 {
			out.States[coll] = Empty
		}
	}
	return out
}

func filter[T any](rows []T, keep func(T) bool) []T {
	var out []T
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func idSet[T any](rows []T, id func(T) string) map[string]bool {
	set := make(map[string]bool, len(rows))
	for _, r := range rows {
		set[id(r)] = true
	}
	return set
}

func is(p *string, v string) bool {
	return p != nil && *p == v
}
