package workflow

import (
	"context"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Engine moves submitted expenses through their approvers to a final outcome
type Engine interface {
	// InitiateApprovals resolves the approver plan of a submitted expense and
	// creates the first pending request (sequential) or all of them (parallel).
	InitiateApprovals(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error)

	// RecordDecision applies one approver's decision. A request is decided at most once;
	// later attempts fail with entity.ErrAlreadyProcessed.
	RecordDecision(ctx context.Context, requestID, approverID int64, outcome, comments string) (*DecisionResult, error)

	// Project recomputes a submitted expense's status from its requests and writes it back.
	Project(ctx context.Context, expenseID int64) (string, error)
}

// DecisionResult reports what a decision changed
type DecisionResult struct {
	Request       *entity.ApprovalRequest `json:"request"`
	ExpenseStatus string                  `json:"expense_status"`
	// Activated is the next sequential request created by an approval, if any
	Activated *entity.ApprovalRequest `json:"activated,omitempty"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
