package entity

// Expense status constants
const (
	ExpenseStatusDraft     = "draft"
	ExpenseStatusSubmitted = "submitted"
	ExpenseStatusApproved  = "approved"
	ExpenseStatusRejected  = "rejected"
)

// Approval request status constants
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Decision outcomes accepted from approvers
const (
	OutcomeApproved = RequestStatusApproved
	OutcomeRejected = RequestStatusRejected
)

// Role constants
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Notification type constants
const (
	NotificationExpenseSubmitted    = "expense_submitted"
	NotificationExpenseApproved     = "expense_approved"
	NotificationExpenseRejected     = "expense_rejected"
	NotificationApprovalRuleUpdated = "approval_rule_updated"
)

// ManagerPosition is the plan position of an auto-inserted manager, ahead of every configured approver.
const ManagerPosition = 0
