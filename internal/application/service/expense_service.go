package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	domainwf "github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateExpenseInput carries the fields of a new draft expense
type CreateExpenseInput struct {
	Description string
	CategoryID  int64
	Amount      decimal.Decimal
	Currency    string
	PaidBy      string
	Remarks     string
	ReceiptURL  string
}

// SubmitResult is the outcome of a submission
type SubmitResult struct {
	Expense  *entity.Expense          `json:"expense"`
	Requests []*entity.ApprovalRequest `json:"approval_requests"`
}

// ExpenseService manages expenses up to and including submission
type ExpenseService interface {
	CreateDraft(ctx context.Context, p entity.Principal, in CreateExpenseInput) (*entity.Expense, error)
	Get(ctx context.Context, p entity.Principal, id int64) (*entity.Expense, error)
	List(ctx context.Context, p entity.Principal, status string, limit, offset int) ([]*entity.Expense, error)

	// Submit moves a draft to submitted and initiates its approvals. A submitted
	// expense without any approval request may be submitted again.
	Submit(ctx context.Context, p entity.Principal, id int64) (*SubmitResult, error)
}

type expenseServiceImpl struct {
	expenses  port.ExpenseRepository
	requests  port.ApprovalRequestRepository
	directory port.DirectoryRepository
	converter port.CurrencyConverter
	engine    workflow.Engine
	txManager port.TransactionManager
	logger    Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenses port.ExpenseRepository,
	requests port.ApprovalRequestRepository,
	directory port.DirectoryRepository,
	converter port.CurrencyConverter,
	engine workflow.Engine,
	txManager port.TransactionManager,
	logger Logger,
) ExpenseService {
	return &expenseServiceImpl{
		expenses:  expenses,
		requests:  requests,
		directory: directory,
		converter: converter,
		engine:    engine,
		txManager: txManager,
		logger:    logger,
	}
}

func (s *expenseServiceImpl) CreateDraft(ctx context.Context, p entity.Principal, in CreateExpenseInput) (*entity.Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))

	if in.Description == "" {
		return nil, fmt.Errorf("%w: description is required", entity.ErrInvalidInput)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", entity.ErrInvalidInput)
	}
	if err := utils.ValidateCurrencyCode(in.Currency); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	if in.CategoryID != 0 {
		category, err := s.directory.GetCategory(ctx, in.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("get category: %w", err)
		}
		if category == nil {
			return nil, fmt.Errorf("%w: unknown category %d", entity.ErrInvalidInput, in.CategoryID)
		}
	}

	company, err := s.directory.GetCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: company %d", entity.ErrNotFound, p.CompanyID)
	}

	converted, err := s.converter.Convert(ctx, in.Amount, in.Currency, company.BaseCurrency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	expense := &entity.Expense{
		EmployeeID:           p.UserID,
		CompanyID:            p.CompanyID,
		Description:          in.Description,
		CategoryID:           in.CategoryID,
		Amount:               in.Amount,
		Currency:             in.Currency,
		AmountInBaseCurrency: converted,
		PaidBy:               in.PaidBy,
		Remarks:              in.Remarks,
		ReceiptURL:           in.ReceiptURL,
		Status:               entity.ExpenseStatusDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.expenses.Create(ctx, expense); err != nil {
		s.logger.Error("Failed to create expense", "employee_id", p.UserID, "error", err)
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.logger.Info("Expense draft created", "expense_id", expense.ID, "employee_id", p.UserID)
	return expense, nil
}

func (s *expenseServiceImpl) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Expense, error) {
	expense, err := s.loadForCompany(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkVisible(ctx, p, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// checkVisible lets owners, admins, the owner's manager and the expense's approvers see it
func (s *expenseServiceImpl) checkVisible(ctx context.Context, p entity.Principal, expense *entity.Expense) error {
	if expense.EmployeeID == p.UserID || p.IsAdmin() {
		return nil
	}
	if !p.CanApprove() {
		return entity.ErrPermissionDenied
	}

	owner, err := s.directory.GetUser(ctx, expense.EmployeeID)
	if err != nil {
		return fmt.Errorf("get employee: %w", err)
	}
	if owner != nil && owner.ManagerID == p.UserID {
		return nil
	}

	requests, err := s.requests.ListByExpense(ctx, expense.ID)
	if err != nil {
		return fmt.Errorf("list requests: %w", err)
	}
	for _, r := range requests {
		if r.ApproverID == p.UserID {
			return nil
		}
	}
	return entity.ErrPermissionDenied
}

func (s *expenseServiceImpl) List(ctx context.Context, p entity.Principal, status string, limit, offset int) ([]*entity.Expense, error) {
	filter := port.ExpenseFilter{
		CompanyID: p.CompanyID,
		Status:    status,
		Limit:     limit,
		Offset:    offset,
	}

	switch p.Role {
	case entity.RoleAdmin:
	case entity.RoleManager:
		reports, err := s.directory.ListDirectReports(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("list direct reports: %w", err)
		}
		filter.EmployeeIDs = append(reports, p.UserID)
	default:
		filter.EmployeeIDs = []int64{p.UserID}
	}

	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *expenseServiceImpl) Submit(ctx context.Context, p entity.Principal, id int64) (*SubmitResult, error) {
	expense, err := s.loadForCompany(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if expense.EmployeeID != p.UserID && !p.IsAdmin() {
		return nil, entity.ErrPermissionDenied
	}

	if expense.Status == entity.ExpenseStatusSubmitted {
		existing, err := s.requests.ListByExpense(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%w: expense %d is already in approval", entity.ErrInvalidExpenseState, id)
		}
		s.logger.Info("Resubmitting stalled expense", "expense_id", id)
	} else {
		if _, err := workflow.NextExpenseStatus(expense.Status, domainwf.TriggerSubmit); err != nil {
			return nil, fmt.Errorf("expense %d: %w", id, err)
		}
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			ok, err := s.expenses.MarkSubmitted(txCtx, id, expense.Status, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("mark submitted: %w", err)
			}
			if !ok {
				return fmt.Errorf("%w: expense %d is no longer a draft", entity.ErrInvalidExpenseState, id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	requests, err := s.engine.InitiateApprovals(ctx, id)
	if err != nil {
		return nil, err
	}

	expense, err = s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload expense: %w", err)
	}

	s.logger.Info("Expense submitted", "expense_id", id, "approver_count", len(requests))
	return &SubmitResult{Expense: expense, Requests: requests}, nil
}

// loadForCompany hides expenses of other companies behind ErrNotFound
func (s *expenseServiceImpl) loadForCompany(ctx context.Context, p entity.Principal, id int64) (*entity.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.CompanyID != p.CompanyID {
		return nil, fmt.Errorf("%w: expense %d", entity.ErrNotFound, id)
	}
	return expense, nil
}
