package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single expense claim raised by an employee.
// Once submitted its status is derived from the approval requests recorded against it.
type Expense struct {
	ID                   int64           `json:"id"`
	EmployeeID           int64           `json:"employee_id"`
	CompanyID            int64           `json:"company_id"`
	Description          string          `json:"description"`
	CategoryID           int64           `json:"category_id,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	AmountInBaseCurrency decimal.Decimal `json:"amount_in_base_currency"`
	PaidBy               string          `json:"paid_by,omitempty"`
	Remarks              string          `json:"remarks,omitempty"`
	ReceiptURL           string          `json:"receipt_url,omitempty"`
	Status               string          `json:"status"`
	SubmissionTime       *time.Time      `json:"submission_time,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// IsTerminal reports whether the expense reached a final outcome.
func (e *Expense) IsTerminal() bool {
	return e.Status == ExpenseStatusApproved || e.Status == ExpenseStatusRejected
}

// Category is an expense category used for display.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Company is a tenant. Amounts are projected into its base currency for display.
type Company struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
}
