package model

import "time"

// ContractStatus is the lifecycle state of a construction contract.
type ContractStatus string

const (
	ContractDraft      ContractStatus = "draft"
	ContractActive     ContractStatus = "active"
	ContractCompleted  ContractStatus = "completed"
	ContractTerminated ContractStatus = "terminated"
)

// MilestoneStatus tracks a subcontractor milestone.
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneCompleted MilestoneStatus = "completed"
	MilestonePaid      MilestoneStatus = "paid"
)

// ContractType is a category of construction contract.
type ContractType struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
}

// Subcontractor performs contracted work.
type Subcontractor struct {
	ID     string `json:"id" yaml:"id" db:"id"`
	Name   string `json:"name" yaml:"name" db:"name"`
	Status string `json:"status" yaml:"status" db:"status"`
}

// Contract is a construction contract with a declared amount. Amount is
// what was agreed; BudgetRealized is what has been executed so far.
type Contract struct {
	ID              string         `json:"id" yaml:"id" db:"id"`
	ProjectID       string         `json:"project_id" yaml:"project_id" db:"project_id"`
	PhaseID         *string        `json:"phase_id,omitempty" yaml:"phase_id,omitempty" db:"phase_id"`
	SubcontractorID *string        `json:"subcontractor_id,omitempty" yaml:"subcontractor_id,omitempty" db:"subcontractor_id"`
	ContractTypeID  *string        `json:"contract_type_id,omitempty" yaml:"contract_type_id,omitempty" db:"contract_type_id"`
	ContractNumber  string         `json:"contract_number" yaml:"contract_number" db:"contract_number"`
	Amount          float64        `json:"amount" yaml:"amount" db:"amount"`
	BudgetRealized  float64        `json:"budget_realized" yaml:"budget_realized" db:"budget_realized"`
	Status          ContractStatus `json:"status" yaml:"status" db:"status"`
	StartDate       *time.Time     `json:"start_date,omitempty" yaml:"start_date,omitempty" db:"start_date"`
	EndDate         *time.Time     `json:"end_date,omitempty" yaml:"end_date,omitempty" db:"end_date"`
}

// ProjectPhase is a named stage of a project with its own budget.
type ProjectPhase struct {
	ID              string  `json:"id" yaml:"id" db:"id"`
	ProjectID       string  `json:"project_id" yaml:"project_id" db:"project_id"`
	Name            string  `json:"name" yaml:"name" db:"name"`
	PhaseNumber     int     `json:"phase_number" yaml:"phase_number" db:"phase_number"`
	BudgetAllocated float64 `json:"budget_allocated" yaml:"budget_allocated" db:"budget_allocated"`
	Status          string  `json:"status" yaml:"status" db:"status"`
}

// WorkLog is a day of work logged against a contract.
type WorkLog struct {
	ID              string    `json:"id" yaml:"id" db:"id"`
	ContractID      string    `json:"contract_id" yaml:"contract_id" db:"contract_id"`
	SubcontractorID *string   `json:"subcontractor_id,omitempty" yaml:"subcontractor_id,omitempty" db:"subcontractor_id"`
	WorkDate        time.Time `json:"work_date" yaml:"work_date" db:"work_date"`
	Hours           float64   `json:"hours" yaml:"hours" db:"hours"`
	Status          string    `json:"status" yaml:"status" db:"status"`
}

// WorkLogBlocked marks a work log whose work could not proceed.
const WorkLogBlocked = "blocked"

// SubcontractorMilestone is a percentage-weighted part of a contract's value.
type SubcontractorMilestone struct {
	ID         string          `json:"id" yaml:"id" db:"id"`
	ContractID string          `json:"contract_id" yaml:"contract_id" db:"contract_id"`
	Name       string          `json:"name" yaml:"name" db:"name"`
	Percentage float64         `json:"percentage" yaml:"percentage" db:"percentage"`
	Status     MilestoneStatus `json:"status" yaml:"status" db:"status"`
	DueDate    *time.Time      `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"`
}

// Investor provides equity.
type Investor struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
	Type string `json:"type" yaml:"type" db:"type"`
}

// ProjectInvestment is equity invested into a project.
type ProjectInvestment struct {
	ID             string    `json:"id" yaml:"id" db:"id"`
	ProjectID      string    `json:"project_id" yaml:"project_id" db:"project_id"`
	InvestorID     *string   `json:"investor_id,omitempty" yaml:"investor_id,omitempty" db:"investor_id"`
	InvestmentType string    `json:"investment_type" yaml:"investment_type" db:"investment_type"`
	Amount         float64   `json:"amount" yaml:"amount" db:"amount"`
	InvestmentDate time.Time `json:"investment_date" yaml:"investment_date" db:"investment_date"`
}

// BankCredit is debt financing from a bank, optionally tied to a project.
type BankCredit struct {
	ID           string     `json:"id" yaml:"id" db:"id"`
	BankID       *string    `json:"bank_id,omitempty" yaml:"bank_id,omitempty" db:"bank_id"`
	CompanyID    *string    `json:"company_id,omitempty" yaml:"company_id,omitempty" db:"company_id"`
	ProjectID    *string    `json:"project_id,omitempty" yaml:"project_id,omitempty" db:"project_id"`
	CreditName   string     `json:"credit_name" yaml:"credit_name" db:"credit_name"`
	CreditType   string     `json:"credit_type" yaml:"credit_type" db:"credit_type"`
	Amount       float64    `json:"amount" yaml:"amount" db:"amount"`
	UsedAmount   float64    `json:"used_amount" yaml:"used_amount" db:"used_amount"`
	RepaidAmount float64    `json:"repaid_amount" yaml:"repaid_amount" db:"repaid_amount"`
	InterestRate float64    `json:"interest_rate" yaml:"interest_rate" db:"interest_rate"`
	StartDate    *time.Time `json:"start_date,omitempty" yaml:"start_date,omitempty" db:"start_date"`
	MaturityDate *time.Time `json:"maturity_date,omitempty" yaml:"maturity_date,omitempty" db:"maturity_date"`
	Status       string     `json:"status" yaml:"status" db:"status"`
}

// StatusActive is the status string shared by credits, loans and
// subcontractors that are currently in force.
const StatusActive = "active"
