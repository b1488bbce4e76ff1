package port

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// PendingApproval is a pending request joined with the display data of its expense
type PendingApproval struct {
	entity.ApprovalRequest
	EmployeeID           int64           `json:"employee_id"`
	EmployeeName         string          `json:"employee_name"`
	Description          string          `json:"description"`
	CategoryName         string          `json:"category_name,omitempty"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	AmountInBaseCurrency decimal.Decimal `json:"amount_in_base_currency"`
	SubmissionTime       *time.Time      `json:"submission_time,omitempty"`
}

// ApprovalHistoryEntry is a request joined with its approver's name
type ApprovalHistoryEntry struct {
	entity.ApprovalRequest
	ApproverName  string `json:"approver_name"`
	ApproverEmail string `json:"approver_email"`
}
