// Package policy holds the pure approval rules: who approves an expense and
// what an expense's status is given the decisions recorded so far.
package policy

import (
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// DefaultMinimumApprovalPercentage applies when no rule exists or the rule leaves it unset.
const DefaultMinimumApprovalPercentage = 100

// ResolvePlan builds the approver plan for an expense.
// directoryManagerID is the employee's manager from the org directory, 0 when none.
// A rule's designated manager takes precedence over the directory manager.
// A rule that yields no approver falls back to the manager like a missing rule.
func ResolvePlan(expenseID, directoryManagerID int64, rule *entity.ApprovalRule) (*entity.ApprovalPlan, error) {
	plan := &entity.ApprovalPlan{
		ExpenseID:                 expenseID,
		Sequential:                true,
		MinimumApprovalPercentage: DefaultMinimumApprovalPercentage,
	}

	if rule == nil {
		return managerOnly(plan, directoryManagerID)
	}

	plan.Sequential = rule.ApproversSequence
	if rule.MinimumApprovalPercentage > 0 {
		plan.MinimumApprovalPercentage = rule.MinimumApprovalPercentage
	}

	managerID := rule.ManagerID
	if managerID == 0 {
		managerID = directoryManagerID
	}
	if managerID == rule.EmployeeID {
		managerID = 0
	}

	specs := rule.OrderedApprovers()
	steps := make([]entity.PlanStep, 0, len(specs)+1)

	withManager := rule.IsManagerApprover && managerID != 0
	if withManager {
		manager := entity.PlanStep{ApproverID: managerID, Position: entity.ManagerPosition}
		for _, s := range specs {
			if s.UserID == managerID {
				manager.Required = s.Required
			}
		}
		steps = append(steps, manager)
	}

	for _, s := range specs {
		if containsApprover(steps, s.UserID) {
			continue
		}
		steps = append(steps, entity.PlanStep{ApproverID: s.UserID, Required: s.Required})
	}

	if len(steps) == 0 {
		return managerOnly(plan, managerID)
	}

	// configured approvers are numbered from 1; an inserted manager sits at 0
	first := 1
	if withManager {
		first = entity.ManagerPosition
	}
	for i := range steps {
		steps[i].Position = first + i
	}

	plan.Steps = steps
	return plan, nil
}

// managerOnly makes the manager the single required approver of plan.
func managerOnly(plan *entity.ApprovalPlan, managerID int64) (*entity.ApprovalPlan, error) {
	if managerID == 0 {
		return nil, entity.ErrNoApproverConfigured
	}
	plan.Steps = []entity.PlanStep{{ApproverID: managerID, Position: entity.ManagerPosition, Required: true}}
	return plan, nil
}

func containsApprover(steps []entity.PlanStep, approverID int64) bool {
	for _, s := range steps {
		if s.ApproverID == approverID {
			return true
		}
	}
	return false
}

// InitialSteps returns the steps that get a pending request at submission.
func InitialSteps(plan *entity.ApprovalPlan) []entity.PlanStep {
	if plan.Sequential {
		return plan.Steps[:1]
	}
	return plan.Steps
}

// NextStep returns the step following approverID in a sequential plan.
func NextStep(plan *entity.ApprovalPlan, approverID int64) (entity.PlanStep, bool) {
	if !plan.Sequential {
		return entity.PlanStep{}, false
	}
	i := plan.StepIndex(approverID)
	if i < 0 || i+1 >= len(plan.Steps) {
		return entity.PlanStep{}, false
	}
	return plan.Steps[i+1], true
}
