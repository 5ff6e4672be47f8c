package model

// Collection names one entity collection. The value doubles as the table
// name in SQL stores and the top-level key in YAML snapshots.
type Collection string

const (
	CollProjects                Collection = "projects"
	CollBuildings               Collection = "buildings"
	CollUnits                   Collection = "units"
	CollCustomers               Collection = "customers"
	CollSales                   Collection = "sales"
	CollContractTypes           Collection = "contract_types"
	CollSubcontractors          Collection = "subcontractors"
	CollContracts               Collection = "contracts"
	CollProjectPhases           Collection = "project_phases"
	CollWorkLogs                Collection = "work_logs"
	CollSubcontractorMilestones Collection = "subcontractor_milestones"
	CollInvestors               Collection = "investors"
	CollProjectInvestments      Collection = "project_investments"
	CollBankCredits             Collection = "bank_credits"
	CollInvoices                Collection = "invoices"
	CollPayments                Collection = "payments"
	CollCompanies               Collection = "companies"
	CollBanks                   Collection = "banks"
	CollBankAccounts            Collection = "bank_accounts"
	CollCreditLines             Collection = "credit_lines"
	CollCompanyLoans            Collection = "company_loans"
	CollCreditAllocations       Collection = "credit_allocations"
	CollTicCostStructures       Collection = "tic_cost_structures"
	CollOfficeSuppliers         Collection = "office_suppliers"
	CollRetailProjects          Collection = "retail_projects"
	CollRetailPhases            Collection = "retail_phases"
	CollRetailContracts         Collection = "retail_contracts"
	CollRetailLandPlots         Collection = "retail_land_plots"
	CollRetailCustomers         Collection = "retail_customers"
	CollRetailSuppliers         Collection = "retail_suppliers"
)

// Collections lists every collection in canonical order.
var Collections = []Collection{
	CollProjects, CollBuildings, CollUnits, CollCustomers, CollSales,
	CollContractTypes, CollSubcontractors, CollContracts, CollProjectPhases,
	CollWorkLogs, CollSubcontractorMilestones, CollInvestors,
	CollProjectInvestments, CollBankCredits, CollInvoices, CollPayments,
	CollCompanies, CollBanks, CollBankAccounts, CollCreditLines,
	CollCompanyLoans, CollCreditAllocations, CollTicCostStructures,
	CollOfficeSuppliers, CollRetailProjects, CollRetailPhases,
	CollRetailContracts, CollRetailLandPlots, CollRetailCustomers,
	CollRetailSuppliers,
}

// Str returns a pointer to s. Handy for optional foreign keys in fixtures.
func Str(s string) *string { return &s }
