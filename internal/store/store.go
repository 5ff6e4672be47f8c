// Package store implements the data access gateway: one read operation per
// entity collection, backed by postgres, SQLite or a YAML snapshot file.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/model"
)

// Gateway exposes one read-only fetch per collection. Every list is
// ordered and may be empty.
type Gateway interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	ListBuildings(ctx context.Context) ([]model.Building, error)
	ListUnits(ctx context.Context) ([]model.Unit, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	ListSales(ctx context.Context) ([]model.Sale, error)
	ListContractTypes(ctx context.Context) ([]model.ContractType, error)
	ListSubcontractors(ctx context.Context) ([]model.Subcontractor, error)
	ListContracts(ctx context.Context) ([]model.Contract, error)
	ListProjectPhases(ctx context.Context) ([]model.ProjectPhase, error)
	ListWorkLogs(ctx context.Context) ([]model.WorkLog, error)
	ListSubcontractorMilestones(ctx context.Context) ([]model.SubcontractorMilestone, error)
	ListInvestors(ctx context.Context) ([]model.Investor, error)
	ListProjectInvestments(ctx context.Context) ([]model.ProjectInvestment, error)
	ListBankCredits(ctx context.Context) ([]model.BankCredit, error)
	ListInvoices(ctx context.Context) ([]model.Invoice, error)
	ListPayments(ctx context.Context) ([]model.Payment, error)
	ListCompanies(ctx context.Context) ([]model.Company, error)
	ListBanks(ctx context.Context) ([]model.Bank, error)
	ListBankAccounts(ctx context.Context) ([]model.BankAccount, error)
	ListCreditLines(ctx context.Context) ([]model.CreditLine, error)
	ListCompanyLoans(ctx context.Context) ([]model.CompanyLoan, error)
	ListCreditAllocations(ctx context.Context) ([]model.CreditAllocation, error)
	ListTicCostStructures(ctx context.Context) ([]model.TicCostStructure, error)
	ListOfficeSuppliers(ctx context.Context) ([]model.OfficeSupplier, error)
	ListRetailProjects(ctx context.Context) ([]model.RetailProject, error)
	ListRetailPhases(ctx context.Context) ([]model.RetailPhase, error)
	ListRetailContracts(ctx context.Context) ([]model.RetailContract, error)
	ListRetailLandPlots(ctx context.Context) ([]model.RetailLandPlot, error)
	ListRetailCustomers(ctx context.Context) ([]model.RetailCustomer, error)
	ListRetailSuppliers(ctx context.Context) ([]model.RetailSupplier, error)

	Close() error
}

// Store is a Gateway backed by a database that can create its schema and
// bulk-load a dataset.
type Store interface {
	Gateway
	Migrate(ctx context.Context) error
	Import(ctx context.Context, ds *Dataset) (int64, error)
}

var tableIndex = func() map[model.Collection]table {
	idx := make(map[model.Collection]table, len(tables))
	for _, tb := range tables {
		idx[tb.name] = tb
	}
	return idx
}()

func tableFor(coll model.Collection) (table, error) {
	tb, ok := tableIndex[coll]
	if !ok {
		return table{}, eris.Errorf("store: unknown collection %q", coll)
	}
	return tb, nil
}
