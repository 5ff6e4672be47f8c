package metrics

import (
	"cmp"
	"slices"

	"github.com/sells-group/portfolio-report/internal/aggregate"
	"github.com/sells-group/portfolio-report/internal/model"
)

// AccountingOverview summarizes invoices and payments.
type AccountingOverview struct {
	Invoices              int     `json:"invoices"`
	Unpaid                int     `json:"unpaid"`
	PartiallyPaid         int     `json:"partially_paid"`
	Paid                  int     `json:"paid"`
	Overdue               int     `json:"overdue"`
	OverdueAmount         float64 `json:"overdue_amount"`
	TotalInvoiced         float64 `json:"total_invoiced"`
	TotalPaid             float64 `json:"total_paid"`
	Outstanding           float64 `json:"outstanding"`
	PaymentCompletionRate float64 `json:"payment_completion_rate"`
	InflowInvoiced        float64 `json:"inflow_invoiced"`
	OutflowInvoiced       float64 `json:"outflow_invoiced"`
	TotalVAT              float64 `json:"total_vat"`
	Payments              int     `json:"payments"`
	PaymentsAmount        float64 `json:"payments_amount"`
	CesijaCount           int     `json:"cesija_count"`
	CesijaAmount          float64 `json:"cesija_amount"`
}

// ComputeAccountingOverview computes the accounting overview group. Cesija
// payments are counted separately and also included in payment totals.
func ComputeAccountingOverview(in Input) AccountingOverview {
	a := AccountingOverview{Invoices: len(in.Facts.Invoices), Payments: len(in.Facts.Payments)}

	var invoiced, paid, outstanding, overdue, inflow, outflow, vat aggregate.Sum
	for _, inv := range in.Facts.Invoices {
		switch inv.Status {
		case model.InvoiceUnpaid:
			a.Unpaid++
		case model.InvoicePartiallyPaid:
			a.PartiallyPaid++
		case model.InvoicePaid:
			a.Paid++
		}
		if inv.Overdue(in.Now) {
			a.Overdue++
			overdue.Add(inv.Remaining())
		}
		invoiced.Add(inv.TotalAmount)
		paid.Add(inv.PaidAmount)
		outstanding.Add(inv.Remaining())
		vat.Add(inv.VATAmount)
		if inv.InvoiceType.Inflow() {
			inflow.Add(inv.TotalAmount)
		} else {
			outflow.Add(inv.TotalAmount)
		}
	}
	a.OverdueAmount = overdue.Float()
	a.TotalInvoiced = invoiced.Float()
	a.TotalPaid = paid.Float()
	a.Outstanding = outstanding.Float()
	a.PaymentCompletionRate = aggregate.PercentOf(a.Paid, a.Invoices)
	a.InflowInvoiced = inflow.Float()
	a.OutflowInvoiced = outflow.Float()
	a.TotalVAT = vat.Float()

	var payments aggregate.Sum
	for _, p := range in.Facts.Payments {
		payments.Add(p.Amount)
	}
	a.PaymentsAmount = payments.Float()
	a.CesijaCount, a.CesijaAmount = cesija(in.Facts.Payments)
	return a
}

// OfficeExpenses summarizes office supplier invoices.
type OfficeExpenses struct {
	Suppliers    int           `json:"suppliers"`
	Invoices     int           `json:"invoices"`
	TotalAmount  float64       `json:"total_amount"`
	TotalPaid    float64       `json:"total_paid"`
	Outstanding  float64       `json:"outstanding"`
	TopSuppliers []SupplierRow `json:"top_suppliers"`
}

// SupplierRow is the office spend with one supplier.
type SupplierRow struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Invoices int     `json:"invoices"`
	Amount   float64 `json:"amount"`
}

const topSuppliers = 5

// ComputeOfficeExpenses computes the office expenses group from incoming
// office invoices.
func ComputeOfficeExpenses(in Input) OfficeExpenses {
	o := OfficeExpenses{Suppliers: len(in.Snap.OfficeSuppliers)}

	rows := make([]SupplierRow, len(in.Snap.OfficeSuppliers))
	sums := make([]aggregate.Sum, len(rows))
	index := make(map[string]int, len(rows))
	for i, s := range in.Snap.OfficeSuppliers {
		rows[i] = SupplierRow{ID: s.ID, Name: s.Name, Category: s.Category}
		index[s.ID] = i
	}

	var amount, paid, outstanding aggregate.Sum
	for _, inv := range in.Facts.Invoices {
		if inv.InvoiceType != model.InvoiceIncomingOffice {
			continue
		}
		o.Invoices++
		amount.Add(inv.TotalAmount)
		paid.Add(inv.PaidAmount)
		outstanding.Add(inv.Remaining())
		if inv.OfficeSupplierID == nil {
			continue
		}
		if i, ok := index[*inv.OfficeSupplierID]; ok {
			rows[i].Invoices++
			sums[i].Add(inv.TotalAmount)
		}
	}
	o.TotalAmount = amount.Float()
	o.TotalPaid = paid.Float()
	o.Outstanding = outstanding.Float()

	for i := range rows {
		rows[i].Amount = sums[i].Float()
	}
	rows = slices.DeleteFunc(rows, func(r SupplierRow) bool { return r.Invoices == 0 })
	slices.SortStableFunc(rows, func(a, b SupplierRow) int { return cmp.Compare(b.Amount, a.Amount) })
	if len(rows) > topSuppliers {
		rows = rows[:topSuppliers]
	}
	o.TopSuppliers = rows
	return o
}
