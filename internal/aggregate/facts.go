package aggregate

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/portfolio-report/internal/model"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// Skip reasons.
const (
	ReasonNegativeArea    = "negative area"
	ReasonNegativeAmount  = "negative amount"
	ReasonUnparsableDate  = "unparsable date"
	ReasonUnknownType     = "unknown invoice type"
	ReasonSaleWithoutUnit = "sale without unit"
	ReasonNoInvoice       = "payment without invoice"
	ReasonInvoiceSkipped  = "invoice skipped"
	ReasonUnknownProject  = "unknown project"
)

// Skip is a record left out of the run because it violates a formula
// precondition. Skips never fail a run; they are reported with the Report.
type Skip struct {
	Collection model.Collection `json:"collection"`
	RecordID   string           `json:"record_id"`
	Reason     string           `json:"reason"`
}

func (s Skip) Error() string {
	return fmt.Sprintf("aggregate: skipped %s %s: %s", s.Collection, s.RecordID, s.Reason)
}

// SaleFact is one sale with its resolved revenue.
type SaleFact struct {
	SaleID        string
	UnitID        string
	ProjectID     string
	CustomerID    string
	Kind          model.UnitKind
	Area          float64
	Revenue       float64
	Date          time.Time
	PaymentMethod string
}

// ContractFact is one contract with its resolved expense.
type ContractFact struct {
	ContractID string
	ProjectID  string
	TypeID     string
	Status     model.ContractStatus
	Declared   float64
	Realized   float64
	Invoiced   float64
	Expense    float64
}

// Overrun is the invoiced amount above the declared amount.
func (c ContractFact) Overrun() float64 {
	if c.Invoiced <= c.Declared {
		return 0
	}
	return Diff(c.Invoiced, c.Declared)
}

// OverBudget reports whether realized spend exceeds the declared amount.
func (c ContractFact) OverBudget() bool {
	return c.Realized > c.Declared
}

// Facts are the resolved joins of one snapshot plus the valid records that
// downstream metrics read. Facts are immutable once built.
type Facts struct {
	Index     *PriceIndex
	Sales     []SaleFact
	Contracts []ContractFact

	// Unattributed is expense-class invoice total per project that no known
	// contract accounts for.
	Unattributed map[string]float64

	// Units, Invoices and Payments hold the records that passed validation.
	Units    []model.Unit
	Invoices []model.Invoice
	Payments []model.Payment

	Skips []Skip

	revenue map[string]Sum
	expense map[string]Sum
}

// Build resolves every join of snap. Records that cannot be resolved are
// recorded in Skips and left out.
func Build(snap *snapshot.Snapshot) *Facts {
	f := &Facts{
		Index:        NewPriceIndex(snap.Units),
		Unattributed: make(map[string]float64),
		revenue:      make(map[string]Sum),
		expense:      make(map[string]Sum),
	}
	projects := make(map[string]bool, len(snap.Projects))
	for _, p := range snap.Projects {
		projects[p.ID] = true
		f.revenue[p.ID] = Sum{}
		f.expense[p.ID] = Sum{}
	}

	units := f.units(snap.Units)
	invoices := f.invoices(snap.Invoices)
	f.payments(snap.Payments, snap.Invoices, invoices)
	f.sales(snap.Sales, units, projects)
	f.contracts(snap.Contracts, projects)
	f.unattributed(projects)

	if len(f.Skips) > 0 {
		zap.L().Warn("aggregate: records skipped", zap.Int("count", len(f.Skips)))
		for _, s := range f.Skips {
			zap.L().Debug("aggregate: record skipped",
				zap.String("collection", string(s.Collection)),
				zap.String("id", s.RecordID),
				zap.String("reason", s.Reason),
			)
		}
	}
	return f
}

func (f *Facts) skip(coll model.Collection, id, reason string) {
	f.Skips = append(f.Skips, Skip{Collection: coll, RecordID: id, Reason: reason})
}

func (f *Facts) units(in []model.Unit) map[string]model.Unit {
	valid := make(map[string]model.Unit, len(in))
	for _, u := range in {
		switch {
		case u.Area < 0:
			f.skip(model.CollUnits, u.ID, ReasonNegativeArea)
		case u.Price < 0:
			f.skip(model.CollUnits, u.ID, ReasonNegativeAmount)
		default:
			f.Units = append(f.Units, u)
			valid[u.ID] = u
		}
	}
	return valid
}

func (f *Facts) invoices(in []model.Invoice) map[string]bool {
	valid := make(map[string]bool, len(in))
	for _, inv := range in {
		switch {
		case !inv.InvoiceType.Known():
			f.skip(model.CollInvoices, inv.ID, ReasonUnknownType)
		case inv.TotalAmount < 0 || inv.PaidAmount < 0 || inv.RemainingAmount < 0 ||
			inv.BaseAmount < 0 || inv.VATAmount < 0:
			f.skip(model.CollInvoices, inv.ID, ReasonNegativeAmount)
		case inv.IssueDate.IsZero():
			f.skip(model.CollInvoices, inv.ID, ReasonUnparsableDate)
		default:
			f.Invoices = append(f.Invoices, inv)
			valid[inv.ID] = true
		}
	}
	return valid
}

func (f *Facts) payments(in []model.Payment, all []model.Invoice, valid map[string]bool) {
	exists := make(map[string]bool, len(all))
	for _, inv := range all {
		exists[inv.ID] = true
	}
	for _, p := range in {
		switch {
		case !exists[p.InvoiceID]:
			f.skip(model.CollPayments, p.ID, ReasonNoInvoice)
		case !valid[p.InvoiceID]:
			f.skip(model.CollPayments, p.ID, ReasonInvoiceSkipped)
		case p.Amount < 0:
			f.skip(model.CollPayments, p.ID, ReasonNegativeAmount)
		case p.PaymentDate.IsZero():
			f.skip(model.CollPayments, p.ID, ReasonUnparsableDate)
		default:
			f.Payments = append(f.Payments, p)
		}
	}
}

func (f *Facts) sales(in []model.Sale, units map[string]model.Unit, projects map[string]bool) {
	for _, s := range in {
		u, ok := units[s.UnitID]
		switch {
		case !ok:
			f.skip(model.CollSales, s.ID, ReasonSaleWithoutUnit)
			continue
		case !projects[u.ProjectID]:
			f.skip(model.CollSales, s.ID, ReasonUnknownProject)
			continue
		case s.SaleDate.IsZero():
			f.skip(model.CollSales, s.ID, ReasonUnparsableDate)
			continue
		case s.SalePrice < 0 || s.DownPayment < 0:
			f.skip(model.CollSales, s.ID, ReasonNegativeAmount)
			continue
		}

		fact := SaleFact{
			SaleID:        s.ID,
			UnitID:        u.ID,
			ProjectID:     u.ProjectID,
			Kind:          u.Kind,
			Area:          u.Area,
			Revenue:       ResolveSaleRevenue(u, f.Index),
			Date:          s.SaleDate,
			PaymentMethod: s.PaymentMethod,
		}
		if s.CustomerID != nil {
			fact.CustomerID = *s.CustomerID
		}
		f.Sales = append(f.Sales, fact)
		add(f.revenue, fact.ProjectID, fact.Revenue)
	}
}

func (f *Facts) contracts(in []model.Contract, projects map[string]bool) {
	for _, c := range in {
		switch {
		case c.Amount < 0 || c.BudgetRealized < 0:
			f.skip(model.CollContracts, c.ID, ReasonNegativeAmount)
			continue
		case !projects[c.ProjectID]:
			f.skip(model.CollContracts, c.ID, ReasonUnknownProject)
			continue
		}

		invoiced := LinkedInvoiced(c.ID, f.Invoices)
		fact := ContractFact{
			ContractID: c.ID,
			ProjectID:  c.ProjectID,
			Status:     c.Status,
			Declared:   c.Amount,
			Realized:   c.BudgetRealized,
			Invoiced:   invoiced,
			Expense:    Cents(max(c.Amount, invoiced)),
		}
		if c.ContractTypeID != nil {
			fact.TypeID = *c.ContractTypeID
		}
		f.Contracts = append(f.Contracts, fact)
		add(f.expense, fact.ProjectID, fact.Expense)
	}
}

func (f *Facts) unattributed(projects map[string]bool) {
	known := f.ContractIDs()
	per := make(map[string]Sum)
	for _, inv := range f.Invoices {
		if !unattributed(inv, known, "") {
			continue
		}
		if !projects[*inv.ProjectID] {
			f.skip(model.CollInvoices, inv.ID, ReasonUnknownProject)
			continue
		}
		add(per, *inv.ProjectID, Cents(inv.TotalAmount))
	}
	for pid, s := range per {
		f.Unattributed[pid] = s.Float()
		cur := f.expense[pid]
		cur.AddSum(s)
		f.expense[pid] = cur
	}
}

func add(m map[string]Sum, key string, v float64) {
	s := m[key]
	s.Add(v)
	m[key] = s
}

// ContractIDs is the set of resolved contract ids.
func (f *Facts) ContractIDs() map[string]bool {
	ids := make(map[string]bool, len(f.Contracts))
	for _, c := range f.Contracts {
		ids[c.ContractID] = true
	}
	return ids
}

// ProjectRevenue is the resolved sale revenue of one project.
func (f *Facts) ProjectRevenue(projectID string) float64 {
	return f.revenue[projectID].Float()
}

// ProjectExpense is contract expense plus unattributed expense of one project.
func (f *Facts) ProjectExpense(projectID string) float64 {
	return f.expense[projectID].Float()
}

// RevenueByProject returns resolved revenue keyed by project id.
func (f *Facts) RevenueByProject() map[string]float64 {
	return floats(f.revenue)
}

// ExpenseByProject returns resolved expense keyed by project id.
func (f *Facts) ExpenseByProject() map[string]float64 {
	return floats(f.expense)
}

// TotalRevenue is the sum of per-project revenue as reported by
// ProjectRevenue, so the two always reconcile.
func (f *Facts) TotalRevenue() float64 {
	return total(f.revenue)
}

// TotalExpense is the sum of per-project expense as reported by
// ProjectExpense.
func (f *Facts) TotalExpense() float64 {
	return total(f.expense)
}

func floats(m map[string]Sum) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.Float()
	}
	return out
}

func total(m map[string]Sum) float64 {
	var s Sum
	for _, k := range slices.Sorted(maps.Keys(m)) {
		s.Add(m[k].Float())
	}
	return s.Float()
}
