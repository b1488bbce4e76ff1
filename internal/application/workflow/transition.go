package workflow

import (
	"fmt"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// NextExpenseStatus validates an expense transition against the expense lifecycle.
// Rejected transitions are reported as ErrInvalidExpenseState.
func NextExpenseStatus(current string, trigger domainwf.Trigger) (string, error) {
	m, err := domainwf.NewExpenseMachine(current)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidExpenseState, err)
	}
	next, err := domainwf.NextStatus(m, trigger)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrInvalidExpenseState, err)
	}
	return next, nil
}

// nextRequestStatus validates a decision against the request lifecycle.
// Deciding an already decided request is reported as ErrAlreadyProcessed.
func nextRequestStatus(current string, trigger domainwf.Trigger) (string, error) {
	m, err := domainwf.NewRequestMachine(current)
	if err != nil {
		return "", fmt.Errorf("request status %q: %w", current, err)
	}
	next, err := domainwf.NextStatus(m, trigger)
	if err != nil {
		return "", entity.ErrAlreadyProcessed
	}
	return next, nil
}

// triggerForStatus maps a projected expense status to the trigger that produces it
func triggerForStatus(status string) domainwf.Trigger {
	if status == entity.ExpenseStatusRejected {
		return domainwf.TriggerReject
	}
	return domainwf.TriggerApprove
}
