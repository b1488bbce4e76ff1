package entity

import (
	"fmt"
	"sort"
	"time"
)

// ApprovalRule is the approval policy configured by an admin for one employee.
type ApprovalRule struct {
	ID                        int64          `json:"id"`
	EmployeeID                int64          `json:"employee_id"`
	CompanyID                 int64          `json:"company_id"`
	Description               string         `json:"description"`
	ManagerID                 int64          `json:"manager_id,omitempty"`
	IsManagerApprover         bool           `json:"is_manager_approver"`
	ApproversSequence         bool           `json:"approvers_sequence"`
	MinimumApprovalPercentage int            `json:"minimum_approval_percentage"`
	Approvers                 []ApproverSpec `json:"approvers"`
	CreatedAt                 time.Time      `json:"created_at"`
	UpdatedAt                 time.Time      `json:"updated_at"`
}

// ApproverSpec is one configured approver of a rule.
type ApproverSpec struct {
	UserID        int64 `json:"user_id"`
	Required      bool  `json:"required"`
	SequenceOrder int   `json:"sequence_order"`
}

// Validate checks the write-time invariants of a rule.
// Sequential rules need sequence orders that are unique and contiguous from 1.
func (r *ApprovalRule) Validate() error {
	if r.EmployeeID <= 0 {
		return fmt.Errorf("%w: employee id is required", ErrInvalidRule)
	}
	if r.MinimumApprovalPercentage < 1 || r.MinimumApprovalPercentage > 100 {
		return fmt.Errorf("%w: minimum approval percentage must be between 1 and 100, got %d",
			ErrInvalidRule, r.MinimumApprovalPercentage)
	}
	if r.ManagerID == r.EmployeeID {
		return fmt.Errorf("%w: employee %d cannot be their own manager", ErrInvalidRule, r.ManagerID)
	}
	if len(r.Approvers) == 0 && !r.IsManagerApprover {
		return fmt.Errorf("%w: rule resolves no approver", ErrInvalidRule)
	}

	seen := make(map[int64]bool, len(r.Approvers))
	for _, a := range r.Approvers {
		if a.UserID <= 0 {
			return fmt.Errorf("%w: approver user id is required", ErrInvalidRule)
		}
		if a.UserID == r.EmployeeID {
			return fmt.Errorf("%w: employee %d cannot approve their own expenses", ErrInvalidRule, a.UserID)
		}
		if seen[a.UserID] {
			return fmt.Errorf("%w: approver %d listed more than once", ErrInvalidRule, a.UserID)
		}
		seen[a.UserID] = true
	}

	if !r.ApproversSequence {
		return nil
	}

	orders := make([]int, 0, len(r.Approvers))
	for _, a := range r.Approvers {
		orders = append(orders, a.SequenceOrder)
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return fmt.Errorf("%w: sequence orders must be unique and contiguous from 1, got %v",
				ErrInvalidRule, orders)
		}
	}
	return nil
}

// OrderedApprovers returns the approvers sorted by sequence order.
// Ties keep their configured order.
func (r *ApprovalRule) OrderedApprovers() []ApproverSpec {
	out := append([]ApproverSpec(nil), r.Approvers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceOrder < out[j].SequenceOrder
	})
	return out
}
