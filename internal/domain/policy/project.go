package policy

import (
	"fmt"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Policy selects how decisions aggregate into an expense status.
type Policy string

const (
	// PolicyThreshold requires every required approver and the minimum percentage of the others.
	PolicyThreshold Policy = "threshold"
	// PolicyUnanimous requires every approver in the plan.
	PolicyUnanimous Policy = "unanimous"
)

// ParsePolicy validates a configured policy name. Empty means threshold.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyThreshold:
		return PolicyThreshold, nil
	case PolicyUnanimous:
		return PolicyUnanimous, nil
	default:
		return "", fmt.Errorf("unknown approval policy %q", s)
	}
}

// Project computes the expense status implied by the recorded requests.
// It returns "" when the expense should stay submitted.
// A nil plan falls back to the unanimous rule over the requests alone.
func Project(p Policy, plan *entity.ApprovalPlan, requests []*entity.ApprovalRequest) string {
	if len(requests) == 0 {
		return ""
	}

	byApprover := make(map[int64]string, len(requests))
	for _, r := range requests {
		if r.Status == entity.RequestStatusRejected {
			return entity.ExpenseStatusRejected
		}
		byApprover[r.ApproverID] = r.Status
	}

	if plan == nil || len(plan.Steps) == 0 {
		for _, r := range requests {
			if r.Status != entity.RequestStatusApproved {
				return ""
			}
		}
		return entity.ExpenseStatusApproved
	}

	if p == PolicyUnanimous {
		for _, s := range plan.Steps {
			if byApprover[s.ApproverID] != entity.RequestStatusApproved {
				return ""
			}
		}
		return entity.ExpenseStatusApproved
	}

	var optional, optionalApproved int
	for _, s := range plan.Steps {
		approved := byApprover[s.ApproverID] == entity.RequestStatusApproved
		if s.Required {
			if !approved {
				return ""
			}
			continue
		}
		optional++
		if approved {
			optionalApproved++
		}
	}

	if optional > 0 && optionalApproved*100 < plan.MinimumApprovalPercentage*optional {
		return ""
	}
	return entity.ExpenseStatusApproved
}
