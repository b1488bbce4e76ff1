package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// publish hands the event to the dispatcher once the owning transaction has committed.
// Handlers outlive the request, so they get a context that is never cancelled.
func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func expensePayload(expense *entity.Expense) map[string]interface{} {
	return map[string]interface{}{
		event.KeyEmployeeID:  expense.EmployeeID,
		event.KeyCompanyID:   expense.CompanyID,
		event.KeyAmount:      expense.Amount.String(),
		event.KeyCurrency:    expense.Currency,
		event.KeyDescription: expense.Description,
	}
}

func (e *engineImpl) requestedEvent(expense *entity.Expense, req *entity.ApprovalRequest, correlationID string) *event.Event {
	payload := expensePayload(expense)
	payload[event.KeyRequestID] = req.ID
	payload[event.KeyApproverID] = req.ApproverID
	return event.NewEventWithCorrelation(event.TypeApprovalRequested, expense.ID, payload, correlationID)
}

func (e *engineImpl) publishDecision(ctx context.Context, expense *entity.Expense, result *DecisionResult) {
	correlationID := uuid.NewString()

	payload := expensePayload(expense)
	payload[event.KeyRequestID] = result.Request.ID
	payload[event.KeyApproverID] = result.Request.ApproverID
	payload[event.KeyOutcome] = result.Request.Status
	payload[event.KeyComments] = result.Request.Comments
	e.publish(ctx, event.NewEventWithCorrelation(event.TypeApprovalDecided, expense.ID, payload, correlationID))

	if result.Activated != nil {
		e.publish(ctx, e.requestedEvent(expense, result.Activated, correlationID))
	}

	if expense.IsTerminal() {
		e.publishOutcome(ctx, expense, result.Request, correlationID)
	}
}

// publishOutcome announces a final expense status. decidedBy is nil when the projector alone settled it.
func (e *engineImpl) publishOutcome(ctx context.Context, expense *entity.Expense, decidedBy *entity.ApprovalRequest, correlationID string) {
	var eventType event.Type
	switch expense.Status {
	case entity.ExpenseStatusApproved:
		eventType = event.TypeExpenseApproved
	case entity.ExpenseStatusRejected:
		eventType = event.TypeExpenseRejected
	default:
		return
	}

	payload := expensePayload(expense)
	if decidedBy != nil {
		payload[event.KeyApproverID] = decidedBy.ApproverID
		payload[event.KeyComments] = decidedBy.Comments
		payload[event.KeyApproverName] = e.approverName(ctx, decidedBy.ApproverID)
	}
	e.publish(ctx, event.NewEventWithCorrelation(eventType, expense.ID, payload, correlationID))
}

// approverName is best effort; a lookup failure only degrades the notification text
func (e *engineImpl) approverName(ctx context.Context, approverID int64) string {
	user, err := e.repos.Directory.GetUser(ctx, approverID)
	if err != nil || user == nil {
		e.logger.Error("Failed to look up approver name", "approver_id", approverID, "error", err)
		return ""
	}
	return user.FullName()
}
