package store

import (
	"context"
	"slices"

	"github.com/sells-group/portfolio-report/internal/model"
)

// FileStore serves a Dataset loaded from a YAML snapshot. It is read-only
// and is meant for fixtures, demos and offline reports.
type FileStore struct {
	ds *Dataset
}

// NewFile loads the YAML snapshot at path.
func NewFile(path string) (*FileStore, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{ds: ds}, nil
}

// NewMemory serves ds directly. The dataset must not be modified afterwards.
func NewMemory(ds *Dataset) *FileStore {
	if ds == nil {
		ds = &Dataset{}
	}
	return &FileStore{ds: ds}
}

func (s *FileStore) Close() error { return nil }

// cloneRows hands out a copy so callers cannot mutate the loaded dataset.
func cloneRows[T any](ctx context.Context, rows []T) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rows == nil {
		return []T{}, nil
	}
	return slices.Clone(rows), nil
}

func (s *FileStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return cloneRows(ctx, s.ds.Projects)
}

func (s *FileStore) ListBuildings(ctx context.Context) ([]model.Building, error) {
	return cloneRows(ctx, s.ds.Buildings)
}

func (s *FileStore) ListUnits(ctx context.Context) ([]model.Unit, error) {
	return cloneRows(ctx, s.ds.Units)
}

func (s *FileStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return cloneRows(ctx, s.ds.Customers)
}

func (s *FileStore) ListSales(ctx context.Context) ([]model.Sale, error) {
	return cloneRows(ctx, s.ds.Sales)
}

func (s *FileStore) ListContractTypes(ctx context.Context) ([]model.ContractType, error) {
	return cloneRows(ctx, s.ds.ContractTypes)
}

func (s *FileStore) ListSubcontractors(ctx context.Context) ([]model.Subcontractor, error) {
	return cloneRows(ctx, s.ds.Subcontractors)
}

func (s *FileStore) ListContracts(ctx context.Context) ([]model.Contract, error) {
	return cloneRows(ctx, s.ds.Contracts)
}

func (s *FileStore) ListProjectPhases(ctx context.Context) ([]model.ProjectPhase, error) {
	return cloneRows(ctx, s.ds.ProjectPhases)
}

func (s *FileStore) ListWorkLogs(ctx context.Context) ([]model.WorkLog, error) {
	return cloneRows(ctx, s.ds.WorkLogs)
}

func (s *FileStore) ListSubcontractorMilestones(ctx context.Context) ([]model.SubcontractorMilestone, error) {
	return cloneRows(ctx, s.ds.SubcontractorMilestones)
}

func (s *FileStore) ListInvestors(ctx context.Context) ([]model.Investor, error) {
	return cloneRows(ctx, s.ds.Investors)
}

func (s *FileStore) ListProjectInvestments(ctx context.Context) ([]model.ProjectInvestment, error) {
	return cloneRows(ctx, s.ds.ProjectInvestments)
}

func (s *FileStore) ListBankCredits(ctx context.Context) ([]model.BankCredit, error) {
	return cloneRows(ctx, s.ds.BankCredits)
}

func (s *FileStore) ListInvoices(ctx context.Context) ([]model.Invoice, error) {
	return cloneRows(ctx, s.ds.Invoices)
}

func (s *FileStore) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return cloneRows(ctx, s.ds.Payments)
}

func (s *FileStore) ListCompanies(ctx context.Context) ([]model.Company, error) {
	return cloneRows(ctx, s.ds.Companies)
}

func (s *FileStore) ListBanks(ctx context.Context) ([]model.Bank, error) {
	return cloneRows(ctx, s.ds.Banks)
}

func (s *FileStore) ListBankAccounts(ctx context.Context) ([]model.BankAccount, error) {
	return cloneRows(ctx, s.ds.BankAccounts)
}

func (s *FileStore) ListCreditLines(ctx context.Context) ([]model.CreditLine, error) {
	return cloneRows(ctx, s.ds.CreditLines)
}

func (s *FileStore) ListCompanyLoans(ctx context.Context) ([]model.CompanyLoan, error) {
	return cloneRows(ctx, s.ds.CompanyLoans)
}

func (s *FileStore) ListCreditAllocations(ctx context.Context) ([]model.CreditAllocation, error) {
	return cloneRows(ctx, s.ds.CreditAllocations)
}

func (s *FileStore) ListTicCostStructures(ctx context.Context) ([]model.TicCostStructure, error) {
	return cloneRows(ctx, s.ds.TicCostStructures)
}

func (s *FileStore) ListOfficeSuppliers(ctx context.Context) ([]model.OfficeSupplier, error) {
	return cloneRows(ctx, s.ds.OfficeSuppliers)
}

func (s *FileStore) ListRetailProjects(ctx context.Context) ([]model.RetailProject, error) {
	return cloneRows(ctx, s.ds.RetailProjects)
}

func (s *FileStore) ListRetailPhases(ctx context.Context) ([]model.RetailPhase, error) {
	return cloneRows(ctx, s.ds.RetailPhases)
}

func (s *FileStore) ListRetailContracts(ctx context.Context) ([]model.RetailContract, error) {
	return cloneRows(ctx, s.ds.RetailContracts)
}

func (s *FileStore) ListRetailLandPlots(ctx context.Context) ([]model.RetailLandPlot, error) {
	return cloneRows(ctx, s.ds.RetailLandPlots)
}

func (s *FileStore) ListRetailCustomers(ctx context.Context) ([]model.RetailCustomer, error) {
	return cloneRows(ctx, s.ds.RetailCustomers)
}

func (s *FileStore) ListRetailSuppliers(ctx context.Context) ([]model.RetailSupplier, error) {
	return cloneRows(ctx, s.ds.RetailSuppliers)
}
