package store

import (
	"time"

	"github.com/sells-group/portfolio-report/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// sampleDataset covers nullable keys, dates, booleans and ints.
func sampleDataset() *Dataset {
	return &Dataset{
		Projects: []model.Project{
			{ID: "p1", Name: "Sunset Towers", Location: "Zagreb", Status: model.ProjectActive, Budget: 1_000_000, StartDate: datePtr(2024, 1, 1)},
			{ID: "p2", Name: "Harbor View", Location: "Split", Status: model.ProjectPlanning, Budget: 500_000},
		},
		Units: []model.Unit{
			{ID: "u1", ProjectID: "p1", Floor: 2, Number: "A-2", Kind: model.UnitApartment, Area: 64.5, Price: 200_000, Status: model.UnitSold, GarageID: model.Str("g1")},
			{ID: "g1", ProjectID: "p1", Number: "G-1", Kind: model.UnitGarage, Area: 12, Price: 15_000, Status: model.UnitSold},
		},
		Sales: []model.Sale{
			{ID: "s1", UnitID: "u1", CustomerID: model.Str("c1"), SalePrice: 215_000, PaymentMethod: "bank_transfer", SaleDate: date(2025, 3, 10)},
		},
		ContractTypes: []model.ContractType{{ID: "ct1", Name: "Masonry"}},
		Invoices: []model.Invoice{
			{ID: "i1", InvoiceNumber: "INV-1", InvoiceType: model.InvoiceIncomingSupplier, Status: model.InvoiceUnpaid,
				ProjectID: model.Str("p1"), IssueDate: date(2025, 2, 1), DueDate: datePtr(2025, 3, 1),
				BaseAmount: 1000, VATAmount: 250, TotalAmount: 1250, RemainingAmount: 1250},
		},
		Payments: []model.Payment{
			{ID: "pay1", InvoiceID: "i1", Amount: 500, PaymentDate: date(2025, 2, 15), PaymentMethod: "cesija", IsCesija: true, CreditLineID: model.Str("cl1")},
		},
	}
}
