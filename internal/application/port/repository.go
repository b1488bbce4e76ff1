package port

import (
	"context"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Repositories return (nil, nil) when a row does not exist; callers map that to entity.ErrNotFound.

// ExpenseFilter narrows expense listings. Zero values mean no restriction.
type ExpenseFilter struct {
	CompanyID   int64
	EmployeeIDs []int64
	Status      string
	Limit       int
	Offset      int
}

// ExpenseRepository defines persistence operations for Expense
type ExpenseRepository interface {
	Create(ctx context.Context, expense *entity.Expense) error
	GetByID(ctx context.Context, id int64) (*entity.Expense, error)
	List(ctx context.Context, filter ExpenseFilter) ([]*entity.Expense, error)

	// UpdateStatusIf moves the expense from expected to next and reports whether a row changed
	UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error)

	// MarkSubmitted is UpdateStatusIf to submitted that also stamps the submission time
	MarkSubmitted(ctx context.Context, id int64, expected string, at time.Time) (bool, error)
}

// ApprovalRuleRepository is the read/write surface of the rule store
type ApprovalRuleRepository interface {
	GetByEmployee(ctx context.Context, employeeID int64) (*entity.ApprovalRule, error)
	Upsert(ctx context.Context, rule *entity.ApprovalRule) error
}

// ApprovalPlanRepository stores the approver plan resolved at submission
type ApprovalPlanRepository interface {
	Save(ctx context.Context, plan *entity.ApprovalPlan) error
	GetByExpenseID(ctx context.Context, expenseID int64) (*entity.ApprovalPlan, error)
}

// ApprovalRequestRepository is the approval request ledger
type ApprovalRequestRepository interface {
	Create(ctx context.Context, req *entity.ApprovalRequest) error
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error)
	ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error)

	// ListPendingByApprover only returns requests whose expense is still submitted
	ListPendingByApprover(ctx context.Context, approverID int64) ([]*PendingApproval, error)
	ListHistory(ctx context.Context, expenseID int64) ([]*ApprovalHistoryEntry, error)

	// UpdateIfStatus records a decision only while the row still has the expected status
	UpdateIfStatus(ctx context.Context, id int64, expected, next, comments string, decidedAt time.Time) (bool, error)
}

// DirectoryRepository reads the org directory: users, their managers and companies
type DirectoryRepository interface {
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	GetCompany(ctx context.Context, id int64) (*entity.Company, error)
	GetCategory(ctx context.Context, id int64) (*entity.Category, error)
	ListDirectReports(ctx context.Context, managerID int64) ([]int64, error)
}

// NotificationRepository defines persistence operations for in-app notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID int64, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, userID int64, id string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// TransactionManager handles database transactions.
// Repositories called with the ctx passed to fn take part in the transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
