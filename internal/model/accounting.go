package model

import "time"

// InvoiceType is the fixed invoice classification used for cash-flow
// direction and expense recognition.
type InvoiceType string

const (
	InvoiceOutgoingSales      InvoiceType = "OUTGOING_SALES"
	InvoiceOutgoingSupplier   InvoiceType = "OUTGOING_SUPPLIER"
	InvoiceOutgoingOffice     InvoiceType = "OUTGOING_OFFICE"
	InvoiceIncomingInvestment InvoiceType = "INCOMING_INVESTMENT"
	InvoiceIncomingSupplier   InvoiceType = "INCOMING_SUPPLIER"
	InvoiceIncomingOffice     InvoiceType = "INCOMING_OFFICE"
	InvoiceIncomingBank       InvoiceType = "INCOMING_BANK"
)

// invoiceTypes maps each known type to whether its payments are inflows.
// Every outflow type is expense-class.
var invoiceTypes = map[InvoiceType]bool{
	InvoiceOutgoingSales:      true,
	InvoiceOutgoingSupplier:   true,
	InvoiceOutgoingOffice:     true,
	InvoiceIncomingInvestment: true,
	InvoiceIncomingSupplier:   false,
	InvoiceIncomingOffice:     false,
	InvoiceIncomingBank:       false,
}

// Known reports whether t is in the fixed type table.
func (t InvoiceType) Known() bool {
	_, ok := invoiceTypes[t]
	return ok
}

// Inflow reports whether payments against t bring money in. Unknown types
// are neither inflow nor outflow.
func (t InvoiceType) Inflow() bool {
	return invoiceTypes[t]
}

// Outflow reports whether payments against t take money out.
func (t InvoiceType) Outflow() bool {
	in, ok := invoiceTypes[t]
	return ok && !in
}

// ExpenseClass reports whether invoices of type t count as project expense.
func (t InvoiceType) ExpenseClass() bool {
	return t.Outflow()
}

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "UNPAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
)

// Open reports whether the invoice still has money owed on it.
func (s InvoiceStatus) Open() bool {
	return s == InvoiceUnpaid || s == InvoicePartiallyPaid
}

// Invoice is an incoming or outgoing invoice. ContractID and ProjectID are
// both optional.
type Invoice struct {
	ID               string        `json:"id" yaml:"id" db:"id"`
	InvoiceNumber    string        `json:"invoice_number" yaml:"invoice_number" db:"invoice_number"`
	InvoiceType      InvoiceType   `json:"invoice_type" yaml:"invoice_type" db:"invoice_type"`
	Status           InvoiceStatus `json:"status" yaml:"status" db:"status"`
	CompanyID        *string       `json:"company_id,omitempty" yaml:"company_id,omitempty" db:"company_id"`
	ProjectID        *string       `json:"project_id,omitempty" yaml:"project_id,omitempty" db:"project_id"`
	ContractID       *string       `json:"contract_id,omitempty" yaml:"contract_id,omitempty" db:"contract_id"`
	SupplierID       *string       `json:"supplier_id,omitempty" yaml:"supplier_id,omitempty" db:"supplier_id"`
	OfficeSupplierID *string       `json:"office_supplier_id,omitempty" yaml:"office_supplier_id,omitempty" db:"office_supplier_id"`
	CustomerID       *string       `json:"customer_id,omitempty" yaml:"customer_id,omitempty" db:"customer_id"`
	IssueDate        time.Time     `json:"issue_date" yaml:"issue_date" db:"issue_date"`
	DueDate          *time.Time    `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"`
	BaseAmount       float64       `json:"base_amount" yaml:"base_amount" db:"base_amount"`
	VATAmount        float64       `json:"vat_amount" yaml:"vat_amount" db:"vat_amount"`
	TotalAmount      float64       `json:"total_amount" yaml:"total_amount" db:"total_amount"`
	PaidAmount       float64       `json:"paid_amount" yaml:"paid_amount" db:"paid_amount"`
	RemainingAmount  float64       `json:"remaining_amount" yaml:"remaining_amount" db:"remaining_amount"`
}

// Remaining returns the amount still owed. Paid invoices owe nothing
// regardless of what the record says.
func (i Invoice) Remaining() float64 {
	if i.Status == InvoicePaid {
		return 0
	}
	return i.RemainingAmount
}

// Overdue reports whether the invoice is open and past its due date at now.
func (i Invoice) Overdue(now time.Time) bool {
	return i.Status.Open() && i.DueDate != nil && i.DueDate.Before(now)
}

// Payment settles (part of) an invoice. Cesija payments are made by
// assigning a credit line instead of a bank transfer.
type Payment struct {
	ID            string    `json:"id" yaml:"id" db:"id"`
	InvoiceID     string    `json:"invoice_id" yaml:"invoice_id" db:"invoice_id"`
	Amount        float64   `json:"amount" yaml:"amount" db:"amount"`
	PaymentDate   time.Time `json:"payment_date" yaml:"payment_date" db:"payment_date"`
	PaymentMethod string    `json:"payment_method" yaml:"payment_method" db:"payment_method"`
	IsCesija      bool      `json:"is_cesija" yaml:"is_cesija" db:"is_cesija"`
	CreditLineID  *string   `json:"credit_line_id,omitempty" yaml:"credit_line_id,omitempty" db:"credit_line_id"`
}

// Company is a legal entity within the group.
type Company struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
	OIB  string `json:"oib" yaml:"oib" db:"oib"`
}

// Bank is a lending or account-holding bank.
type Bank struct {
	ID   string `json:"id" yaml:"id" db:"id"`
	Name string `json:"name" yaml:"name" db:"name"`
}

// BankAccount is a company account at a bank.
type BankAccount struct {
	ID            string  `json:"id" yaml:"id" db:"id"`
	CompanyID     string  `json:"company_id" yaml:"company_id" db:"company_id"`
	BankID        *string `json:"bank_id,omitempty" yaml:"bank_id,omitempty" db:"bank_id"`
	AccountNumber string  `json:"account_number" yaml:"account_number" db:"account_number"`
	Currency      string  `json:"currency" yaml:"currency" db:"currency"`
	Balance       float64 `json:"balance" yaml:"balance" db:"balance"`
}

// CreditLine is a revolving facility a company can draw on or assign.
type CreditLine struct {
	ID          string  `json:"id" yaml:"id" db:"id"`
	CompanyID   string  `json:"company_id" yaml:"company_id" db:"company_id"`
	BankID      *string `json:"bank_id,omitempty" yaml:"bank_id,omitempty" db:"bank_id"`
	Name        string  `json:"name" yaml:"name" db:"name"`
	CreditLimit float64 `json:"credit_limit" yaml:"credit_limit" db:"credit_limit"`
	DrawnAmount float64 `json:"drawn_amount" yaml:"drawn_amount" db:"drawn_amount"`
	Status      string  `json:"status" yaml:"status" db:"status"`
}

// CompanyLoan is an intra-group loan.
type CompanyLoan struct {
	ID                string    `json:"id" yaml:"id" db:"id"`
	LenderCompanyID   string    `json:"lender_company_id" yaml:"lender_company_id" db:"lender_company_id"`
	BorrowerCompanyID string    `json:"borrower_company_id" yaml:"borrower_company_id" db:"borrower_company_id"`
	Amount            float64   `json:"amount" yaml:"amount" db:"amount"`
	RepaidAmount      float64   `json:"repaid_amount" yaml:"repaid_amount" db:"repaid_amount"`
	InterestRate      float64   `json:"interest_rate" yaml:"interest_rate" db:"interest_rate"`
	LoanDate          time.Time `json:"loan_date" yaml:"loan_date" db:"loan_date"`
	Status            string    `json:"status" yaml:"status" db:"status"`
}

// CreditAllocation assigns part of a bank credit to a project.
type CreditAllocation struct {
	ID              string  `json:"id" yaml:"id" db:"id"`
	BankCreditID    string  `json:"bank_credit_id" yaml:"bank_credit_id" db:"bank_credit_id"`
	ProjectID       *string `json:"project_id,omitempty" yaml:"project_id,omitempty" db:"project_id"`
	AllocatedAmount float64 `json:"allocated_amount" yaml:"allocated_amount" db:"allocated_amount"`
	UsedAmount      float64 `json:"used_amount" yaml:"used_amount" db:"used_amount"`
}

// TicCostStructure is one budget line of the TIC cost structure.
type TicCostStructure struct {
	ID           string  `json:"id" yaml:"id" db:"id"`
	ProjectID    string  `json:"project_id" yaml:"project_id" db:"project_id"`
	Category     string  `json:"category" yaml:"category" db:"category"`
	Name         string  `json:"name" yaml:"name" db:"name"`
	BudgetAmount float64 `json:"budget_amount" yaml:"budget_amount" db:"budget_amount"`
	SpentAmount  float64 `json:"spent_amount" yaml:"spent_amount" db:"spent_amount"`
}

// OfficeSupplier supplies the office (rent, utilities, services).
type OfficeSupplier struct {
	ID       string `json:"id" yaml:"id" db:"id"`
	Name     string `json:"name" yaml:"name" db:"name"`
	Category string `json:"category" yaml:"category" db:"category"`
}
