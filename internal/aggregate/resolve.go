package aggregate

import "github.com/sells-group/portfolio-report/internal/model"

// ResolveSaleRevenue is the unit price plus the prices of its linked garage
// and storage room.
func ResolveSaleRevenue(unit model.Unit, idx *PriceIndex) float64 {
	return Total(unit.Price, idx.Garage(unit.GarageID), idx.Storage(unit.StorageID))
}

// ResolveContractExpense is the larger of the declared contract amount and
// the sum of expense-class invoices linked to the contract. Invoiced
// overruns count as real expense.
func ResolveContractExpense(c model.Contract, invoices []model.Invoice) float64 {
	invoiced := LinkedInvoiced(c.ID, invoices)
	return Cents(max(c.Amount, invoiced))
}

// LinkedInvoiced sums expense-class invoice totals linked to contractID.
func LinkedInvoiced(contractID string, invoices []model.Invoice) float64 {
	var s Sum
	for _, inv := range invoices {
		if inv.ContractID != nil && *inv.ContractID == contractID && inv.InvoiceType.ExpenseClass() {
			s.Add(inv.TotalAmount)
		}
	}
	return s.Float()
}

// UnattributedExpense sums expense-class invoices that are not bound to a
// known contract. With a project id only that project's invoices count;
// with "" every invoice carrying some project id counts.
func UnattributedExpense(invoices []model.Invoice, contractIDs map[string]bool, projectID string) float64 {
	var s Sum
	for _, inv := range invoices {
		if unattributed(inv, contractIDs, projectID) {
			s.Add(inv.TotalAmount)
		}
	}
	return s.Float()
}

func unattributed(inv model.Invoice, contractIDs map[string]bool, projectID string) bool {
	if !inv.InvoiceType.ExpenseClass() || inv.ProjectID == nil {
		return false
	}
	if inv.ContractID != nil && contractIDs[*inv.ContractID] {
		return false
	}
	return projectID == "" || *inv.ProjectID == projectID
}
