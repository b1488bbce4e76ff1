package entity

import "time"

// ApprovalRequest is one approver's decision slot on one expense.
// A row is decided at most once; after that it is immutable.
type ApprovalRequest struct {
	ID         int64      `json:"id"`
	ExpenseID  int64      `json:"expense_id"`
	ApproverID int64      `json:"approver_id"`
	Position   int        `json:"position"`
	Required   bool       `json:"required"`
	Status     string     `json:"status"`
	Comments   string     `json:"comments,omitempty"`
	DecidedAt  *time.Time `json:"decided_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsPending reports whether the request still awaits a decision.
func (r *ApprovalRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// ApprovalPlan is the approver set resolved for an expense at submission time.
// It is stored so that later rule edits do not change in-flight expenses.
type ApprovalPlan struct {
	ExpenseID                 int64      `json:"expense_id"`
	Sequential                bool       `json:"sequential"`
	MinimumApprovalPercentage int        `json:"minimum_approval_percentage"`
	Steps                     []PlanStep `json:"steps"`
	CreatedAt                 time.Time  `json:"created_at"`
}

// PlanStep is one approver slot of an ApprovalPlan, in activation order.
type PlanStep struct {
	ApproverID int64 `json:"approver_id"`
	Position   int   `json:"position"`
	Required   bool  `json:"required"`
}

// StepIndex returns the index of the approver's step, or -1.
func (p *ApprovalPlan) StepIndex(approverID int64) int {
	for i, s := range p.Steps {
		if s.ApproverID == approverID {
			return i
		}
	}
	return -1
}
