package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/policy"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
)

// errConflict marks a compare-and-set that matched no row
var errConflict = errors.New("status changed concurrently")

// Repositories groups the stores the engine reads and writes
type Repositories struct {
	Expenses  port.ExpenseRepository
	Rules     port.ApprovalRuleRepository
	Plans     port.ApprovalPlanRepository
	Requests  port.ApprovalRequestRepository
	Directory port.DirectoryRepository
}

type engineImpl struct {
	repos      Repositories
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger

	policy  policy.Policy
	retries int
	now     func() time.Time
	locks   *keyedMutex
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives events after each commit
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithPolicy selects how decisions aggregate into the expense status
func WithPolicy(p policy.Policy) EngineOption {
	return func(e *engineImpl) {
		e.policy = p
	}
}

// WithDecisionRetries sets how many times a decision is retried after a compare-and-set conflict
func WithDecisionRetries(n int) EngineOption {
	return func(e *engineImpl) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(repos Repositories, txManager port.TransactionManager, opts ...EngineOption) Engine {
	e := &engineImpl{
		repos:     repos,
		txManager: txManager,
		logger:    nopLogger{},
		policy:    policy.PolicyThreshold,
		retries:   1,
		now:       func() time.Time { return time.Now().UTC() },
		locks:     newKeyedMutex(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func (e *engineImpl) InitiateApprovals(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error) {
	unlock := e.locks.Lock(expenseID)
	defer unlock()

	var (
		expense *entity.Expense
		created []*entity.ApprovalRequest
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		expense, err = e.loadExpense(txCtx, expenseID)
		if err != nil {
			return err
		}
		if expense.Status != entity.ExpenseStatusSubmitted {
			return fmt.Errorf("%w: expense %d is %s", entity.ErrInvalidExpenseState, expenseID, expense.Status)
		}

		existing, err := e.repos.Requests.ListByExpense(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("list requests: %w", err)
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: approvals already initiated for expense %d", entity.ErrInvalidExpenseState, expenseID)
		}

		employee, err := e.repos.Directory.GetUser(txCtx, expense.EmployeeID)
		if err != nil {
			return fmt.Errorf("get employee: %w", err)
		}
		if employee == nil {
			return fmt.Errorf("%w: employee %d", entity.ErrNotFound, expense.EmployeeID)
		}

		rule, err := e.repos.Rules.GetByEmployee(txCtx, expense.EmployeeID)
		if err != nil {
			return fmt.Errorf("get approval rule: %w", err)
		}

		plan, err := policy.ResolvePlan(expense.ID, employee.ManagerID, rule)
		if err != nil {
			return err
		}
		plan.CreatedAt = e.now()
		if err := e.repos.Plans.Save(txCtx, plan); err != nil {
			return fmt.Errorf("save approval plan: %w", err)
		}

		for _, step := range policy.InitialSteps(plan) {
			req, err := e.createRequest(txCtx, expenseID, step)
			if err != nil {
				return err
			}
			created = append(created, req)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Failed to initiate approvals", "expense_id", expenseID, "error", err)
		return nil, err
	}

	e.logger.Info("Approvals initiated", "expense_id", expenseID, "request_count", len(created))

	correlationID := uuid.NewString()
	e.publish(ctx, event.NewEventWithCorrelation(event.TypeExpenseSubmitted, expenseID, expensePayload(expense), correlationID))
	for _, req := range created {
		e.publish(ctx, e.requestedEvent(expense, req, correlationID))
	}

	return created, nil
}

func (e *engineImpl) RecordDecision(ctx context.Context, requestID, approverID int64, outcome, comments string) (*DecisionResult, error) {
	trigger, ok := domainwf.TriggerForOutcome(outcome)
	if !ok {
		return nil, fmt.Errorf("%w: outcome %q", entity.ErrInvalidDecision, outcome)
	}

	req, err := e.repos.Requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	// a request addressed to someone else is indistinguishable from a missing one
	if req == nil || req.ApproverID != approverID {
		return nil, fmt.Errorf("%w: approval request %d", entity.ErrNotFound, requestID)
	}

	unlock := e.locks.Lock(req.ExpenseID)
	defer unlock()

	var (
		result  *DecisionResult
		expense *entity.Expense
	)
	for attempt := 0; ; attempt++ {
		result, expense, err = e.decide(ctx, req.ExpenseID, requestID, trigger, comments)
		if !errors.Is(err, errConflict) {
			break
		}
		if attempt >= e.retries {
			err = entity.ErrAlreadyProcessed
			break
		}
		e.logger.Info("Retrying decision after conflict", "request_id", requestID, "attempt", attempt+1)
	}
	if err != nil {
		e.logger.Error("Failed to record decision",
			"request_id", requestID,
			"approver_id", approverID,
			"outcome", outcome,
			"error", err,
		)
		return nil, err
	}

	e.logger.Info("Decision recorded",
		"request_id", requestID,
		"expense_id", req.ExpenseID,
		"outcome", outcome,
		"expense_status", result.ExpenseStatus,
	)

	e.publishDecision(ctx, expense, result)
	return result, nil
}

// decide runs one attempt of a decision in its own transaction
func (e *engineImpl) decide(ctx context.Context, expenseID, requestID int64, trigger domainwf.Trigger, comments string) (*DecisionResult, *entity.Expense, error) {
	var (
		result  *DecisionResult
		expense *entity.Expense
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := e.repos.Requests.GetByID(txCtx, requestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if req == nil {
			return fmt.Errorf("%w: approval request %d", entity.ErrNotFound, requestID)
		}
		if !req.IsPending() {
			return entity.ErrAlreadyProcessed
		}

		expense, err = e.loadExpense(txCtx, expenseID)
		if err != nil {
			return err
		}
		// leftover pending rows of a decided expense can no longer change anything
		if expense.Status != entity.ExpenseStatusSubmitted {
			return entity.ErrAlreadyProcessed
		}

		next, err := nextRequestStatus(req.Status, trigger)
		if err != nil {
			return err
		}

		decidedAt := e.now()
		ok, err := e.repos.Requests.UpdateIfStatus(txCtx, requestID, entity.RequestStatusPending, next, comments, decidedAt)
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return errConflict
		}
		req.Status = next
		req.Comments = comments
		req.DecidedAt = &decidedAt

		result = &DecisionResult{Request: req, ExpenseStatus: expense.Status}

		if next == entity.RequestStatusRejected {
			status, err := e.transitionExpense(txCtx, expense, entity.ExpenseStatusRejected)
			if err != nil {
				return err
			}
			result.ExpenseStatus = status
			return nil
		}

		plan, err := e.repos.Plans.GetByExpenseID(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("get approval plan: %w", err)
		}

		if plan != nil {
			if step, ok := policy.NextStep(plan, req.ApproverID); ok {
				activated, err := e.activate(txCtx, expenseID, step)
				if err != nil {
					return err
				}
				result.Activated = activated
				return nil
			}
		}

		status, err := e.projectTx(txCtx, expense, plan)
		if err != nil {
			return err
		}
		result.ExpenseStatus = status
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return result, expense, nil
}

func (e *engineImpl) Project(ctx context.Context, expenseID int64) (string, error) {
	unlock := e.locks.Lock(expenseID)
	defer unlock()

	var (
		expense *entity.Expense
		before  string
		status  string
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		expense, err = e.loadExpense(txCtx, expenseID)
		if err != nil {
			return err
		}
		before = expense.Status
		if expense.Status != entity.ExpenseStatusSubmitted {
			status = expense.Status
			return nil
		}

		plan, err := e.repos.Plans.GetByExpenseID(txCtx, expenseID)
		if err != nil {
			return fmt.Errorf("get approval plan: %w", err)
		}
		status, err = e.projectTx(txCtx, expense, plan)
		return err
	})
	if errors.Is(err, errConflict) {
		return "", entity.ErrAlreadyProcessed
	}
	if err != nil {
		return "", err
	}

	if status != before {
		e.logger.Info("Expense status projected", "expense_id", expenseID, "status", status)
		e.publishOutcome(ctx, expense, nil, uuid.NewString())
	}
	return status, nil
}

// projectTx applies the projector to a submitted expense and writes a changed status back
func (e *engineImpl) projectTx(ctx context.Context, expense *entity.Expense, plan *entity.ApprovalPlan) (string, error) {
	requests, err := e.repos.Requests.ListByExpense(ctx, expense.ID)
	if err != nil {
		return "", fmt.Errorf("list requests: %w", err)
	}

	projected := policy.Project(e.policy, plan, requests)
	if projected == "" {
		return expense.Status, nil
	}
	return e.transitionExpense(ctx, expense, projected)
}

// transitionExpense moves a submitted expense to target with a compare-and-set
func (e *engineImpl) transitionExpense(ctx context.Context, expense *entity.Expense, target string) (string, error) {
	next, err := NextExpenseStatus(expense.Status, triggerForStatus(target))
	if err != nil {
		return "", err
	}

	ok, err := e.repos.Expenses.UpdateStatusIf(ctx, expense.ID, expense.Status, next)
	if err != nil {
		return "", fmt.Errorf("update expense status: %w", err)
	}
	if !ok {
		return "", errConflict
	}
	expense.Status = next
	return next, nil
}

// activate creates the pending request of a sequential step unless it already exists
func (e *engineImpl) activate(ctx context.Context, expenseID int64, step entity.PlanStep) (*entity.ApprovalRequest, error) {
	existing, err := e.repos.Requests.ListByExpense(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	for _, r := range existing {
		if r.ApproverID == step.ApproverID {
			return nil, nil
		}
	}
	return e.createRequest(ctx, expenseID, step)
}

func (e *engineImpl) createRequest(ctx context.Context, expenseID int64, step entity.PlanStep) (*entity.ApprovalRequest, error) {
	req := &entity.ApprovalRequest{
		ExpenseID:  expenseID,
		ApproverID: step.ApproverID,
		Position:   step.Position,
		Required:   step.Required,
		Status:     entity.RequestStatusPending,
		CreatedAt:  e.now(),
	}
	if err := e.repos.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create approval request for approver %d: %w", step.ApproverID, err)
	}
	return req, nil
}

func (e *engineImpl) loadExpense(ctx context.Context, id int64) (*entity.Expense, error) {
	expense, err := e.repos.Expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil {
		return nil, fmt.Errorf("%w: expense %d", entity.ErrNotFound, id)
	}
	return expense, nil
}
