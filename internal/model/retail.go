package model

// RetailPhaseType separates land acquisition, development and sales costs.
type RetailPhaseType string

const (
	RetailAcquisition RetailPhaseType = "acquisition"
	RetailDevelopment RetailPhaseType = "development"
	RetailSales       RetailPhaseType = "sales"
)

// RetailProject is a retail (land) development project.
type RetailProject struct {
	ID         string  `json:"id" yaml:"id" db:"id"`
	Name       string  `json:"name" yaml:"name" db:"name"`
	Location   string  `json:"location" yaml:"location" db:"location"`
	LandPlotID *string `json:"land_plot_id,omitempty" yaml:"land_plot_id,omitempty" db:"land_plot_id"`
	Status     string  `json:"status" yaml:"status" db:"status"`
}

// RetailPhase is a stage of a retail project.
type RetailPhase struct {
	ID              string          `json:"id" yaml:"id" db:"id"`
	RetailProjectID string          `json:"retail_project_id" yaml:"retail_project_id" db:"retail_project_id"`
	Name            string          `json:"name" yaml:"name" db:"name"`
	PhaseType       RetailPhaseType `json:"phase_type" yaml:"phase_type" db:"phase_type"`
	BudgetAllocated float64         `json:"budget_allocated" yaml:"budget_allocated" db:"budget_allocated"`
	Status          string          `json:"status" yaml:"status" db:"status"`
}

// RetailContract is a supplier or customer contract within a retail phase.
type RetailContract struct {
	ID             string  `json:"id" yaml:"id" db:"id"`
	PhaseID        string  `json:"phase_id" yaml:"phase_id" db:"phase_id"`
	SupplierID     *string `json:"supplier_id,omitempty" yaml:"supplier_id,omitempty" db:"supplier_id"`
	CustomerID     *string `json:"customer_id,omitempty" yaml:"customer_id,omitempty" db:"customer_id"`
	ContractAmount float64 `json:"contract_amount" yaml:"contract_amount" db:"contract_amount"`
	BudgetRealized float64 `json:"budget_realized" yaml:"budget_realized" db:"budget_realized"`
	Status         string  `json:"status" yaml:"status" db:"status"`
}

// RetailLandPlot is a purchased (or to be purchased) land plot.
type RetailLandPlot struct {
	ID            string  `json:"id" yaml:"id" db:"id"`
	PlotNumber    string  `json:"plot_number" yaml:"plot_number" db:"plot_number"`
	Area          float64 `json:"area" yaml:"area" db:"area"`
	PurchasePrice float64 `json:"purchase_price" yaml:"purchase_price" db:"purchase_price"`
	PaymentStatus string  `json:"payment_status" yaml:"payment_status" db:"payment_status"`
}

// LandPlotPaid is the payment status of a fully paid land plot.
const LandPlotPaid = "paid"

// RetailCustomer buys retail land or space.
type RetailCustomer struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
}

// RetailSupplier supplies retail projects.
type RetailSupplier struct {
	ID           string `json:"id" yaml:"id" db:"id"`
	Name         string `json:"name" yaml:"name" db:"name"`
	SupplierType string `json:"supplier_type" yaml:"supplier_type" db:"supplier_type"`
}
