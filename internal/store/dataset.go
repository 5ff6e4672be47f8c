package store

import (
	"os"
	"reflect"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/portfolio-report/internal/model"
)

// Dataset holds every collection in memory. It is the on-disk shape of a
// YAML snapshot and the unit of import into the SQL stores. Field yaml tags
// are the collection names.
type Dataset struct {
	Projects                []model.Project                `yaml:"projects"`
	Buildings               []model.Building               `yaml:"buildings"`
	Units                   []model.Unit                   `yaml:"units"`
	Customers               []model.Customer               `yaml:"customers"`
	Sales                   []model.Sale                   `yaml:"sales"`
	ContractTypes           []model.ContractType           `yaml:"contract_types"`
	Subcontractors          []model.Subcontractor          `yaml:"subcontractors"`
	Contracts               []model.Contract               `yaml:"contracts"`
	ProjectPhases           []model.ProjectPhase           `yaml:"project_phases"`
	WorkLogs                []model.WorkLog                `yaml:"work_logs"`
	SubcontractorMilestones []model.SubcontractorMilestone `yaml:"subcontractor_milestones"`
	Investors               []model.Investor               `yaml:"investors"`
	ProjectInvestments      []model.ProjectInvestment      `yaml:"project_investments"`
	BankCredits             []model.BankCredit             `yaml:"bank_credits"`
	Invoices                []model.Invoice                `yaml:"invoices"`
	Payments                []model.Payment                `yaml:"payments"`
	Companies               []model.Company                `yaml:"companies"`
	Banks                   []model.Bank                   `yaml:"banks"`
	BankAccounts            []model.BankAccount            `yaml:"bank_accounts"`
	CreditLines             []model.CreditLine             `yaml:"credit_lines"`
	CompanyLoans            []model.CompanyLoan            `yaml:"company_loans"`
	CreditAllocations       []model.CreditAllocation       `yaml:"credit_allocations"`
	TicCostStructures       []model.TicCostStructure       `yaml:"tic_cost_structures"`
	OfficeSuppliers         []model.OfficeSupplier         `yaml:"office_suppliers"`
	RetailProjects          []model.RetailProject          `yaml:"retail_projects"`
	RetailPhases            []model.RetailPhase            `yaml:"retail_phases"`
	RetailContracts         []model.RetailContract         `yaml:"retail_contracts"`
	RetailLandPlots         []model.RetailLandPlot         `yaml:"retail_land_plots"`
	RetailCustomers         []model.RetailCustomer         `yaml:"retail_customers"`
	RetailSuppliers         []model.RetailSupplier         `yaml:"retail_suppliers"`
}

// LoadDataset reads a YAML snapshot from path.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read dataset %s", path)
	}
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, eris.Wrapf(err, "store: decode dataset %s", path)
	}
	return &ds, nil
}

// table describes one collection: its name and record type.
type table struct {
	name  model.Collection
	field int
	typ   reflect.Type
}

// tables is derived from Dataset so the schema, the YAML keys and the
// import order can never disagree.
var tables = func() []table {
	t := reflect.TypeFor[Dataset]()
	out := make([]table, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		out = append(out, table{
			name:  model.Collection(f.Tag.Get("yaml")),
			field: i,
			typ:   f.Type.Elem(),
		})
	}
	return out
}()

// rowsOf returns the records of one collection as a reflect slice.
func (ds *Dataset) rowsOf(tb table) reflect.Value {
	return reflect.ValueOf(ds).Elem().Field(tb.field)
}

// Counts returns the number of records per collection.
func (ds *Dataset) Counts() map[model.Collection]int {
	out := make(map[model.Collection]int, len(tables))
	for _, tb := range tables {
		out[tb.name] = ds.rowsOf(tb).Len()
	}
	return out
}
