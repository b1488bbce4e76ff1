package service

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// ExportFile is a rendered document ready to be served
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ApprovalService is the approver-facing surface of the workflow
type ApprovalService interface {
	ListPending(ctx context.Context, p entity.Principal) ([]*port.PendingApproval, error)
	Decide(ctx context.Context, p entity.Principal, requestID int64, outcome, comments string) (*workflow.DecisionResult, error)
	History(ctx context.Context, p entity.Principal, expenseID int64) ([]*port.ApprovalHistoryEntry, error)
	ExportHistory(ctx context.Context, p entity.Principal, expenseID int64) (*ExportFile, error)

	// Reproject lets an admin recompute an expense's status from its recorded decisions
	Reproject(ctx context.Context, p entity.Principal, expenseID int64) (string, error)
}

type approvalServiceImpl struct {
	expenses  port.ExpenseRepository
	requests  port.ApprovalRequestRepository
	directory port.DirectoryRepository
	engine    workflow.Engine
	exporter  port.HistoryExporter
	logger    Logger
}

// NewApprovalService creates a new ApprovalService. exporter may be nil, which disables exports.
func NewApprovalService(
	expenses port.ExpenseRepository,
	requests port.ApprovalRequestRepository,
	directory port.DirectoryRepository,
	engine workflow.Engine,
	exporter port.HistoryExporter,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		expenses:  expenses,
		requests:  requests,
		directory: directory,
		engine:    engine,
		exporter:  exporter,
		logger:    logger,
	}
}

func (s *approvalServiceImpl) ListPending(ctx context.Context, p entity.Principal) ([]*port.PendingApproval, error) {
	if !p.CanApprove() {
		return nil, entity.ErrPermissionDenied
	}

	pending, err := s.requests.ListPendingByApprover(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return pending, nil
}

func (s *approvalServiceImpl) Decide(ctx context.Context, p entity.Principal, requestID int64, outcome, comments string) (*workflow.DecisionResult, error) {
	if !p.CanApprove() {
		return nil, entity.ErrPermissionDenied
	}

	result, err := s.engine.RecordDecision(ctx, requestID, p.UserID, outcome, comments)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approval decided",
		"request_id", requestID,
		"approver_id", p.UserID,
		"outcome", outcome,
		"expense_status", result.ExpenseStatus,
	)
	return result, nil
}

func (s *approvalServiceImpl) History(ctx context.Context, p entity.Principal, expenseID int64) ([]*port.ApprovalHistoryEntry, error) {
	if _, err := s.visibleExpense(ctx, p, expenseID); err != nil {
		return nil, err
	}

	history, err := s.requests.ListHistory(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}
	return history, nil
}

func (s *approvalServiceImpl) ExportHistory(ctx context.Context, p entity.Principal, expenseID int64) (*ExportFile, error) {
	if !p.CanApprove() {
		return nil, entity.ErrPermissionDenied
	}
	if s.exporter == nil {
		return nil, fmt.Errorf("history export is not configured")
	}

	expense, err := s.visibleExpense(ctx, p, expenseID)
	if err != nil {
		return nil, err
	}

	history, err := s.requests.ListHistory(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("list approval history: %w", err)
	}

	sheet := &port.HistorySheet{
		ExpenseID:   expense.ID,
		Description: expense.Description,
		Amount:      expense.Amount,
		Currency:    expense.Currency,
		Status:      expense.Status,
		Entries:     history,
	}
	if owner, err := s.directory.GetUser(ctx, expense.EmployeeID); err == nil && owner != nil {
		sheet.EmployeeName = owner.FullName()
	}

	data, err := s.exporter.ExportHistory(ctx, sheet)
	if err != nil {
		s.logger.Error("Failed to export approval history", "expense_id", expenseID, "error", err)
		return nil, fmt.Errorf("export history: %w", err)
	}

	return &ExportFile{
		Name:        fmt.Sprintf("expense-%d-approvals%s", expenseID, s.exporter.FileExtension()),
		ContentType: s.exporter.ContentType(),
		Data:        data,
	}, nil
}

func (s *approvalServiceImpl) Reproject(ctx context.Context, p entity.Principal, expenseID int64) (string, error) {
	if !p.IsAdmin() {
		return "", entity.ErrPermissionDenied
	}
	if _, err := s.visibleExpense(ctx, p, expenseID); err != nil {
		return "", err
	}
	return s.engine.Project(ctx, expenseID)
}

// visibleExpense applies the history access rule: same company, and employees only see their own
func (s *approvalServiceImpl) visibleExpense(ctx context.Context, p entity.Principal, expenseID int64) (*entity.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	if expense == nil || expense.CompanyID != p.CompanyID {
		return nil, fmt.Errorf("%w: expense %d", entity.ErrNotFound, expenseID)
	}
	if !p.CanApprove() && expense.EmployeeID != p.UserID {
		return nil, entity.ErrPermissionDenied
	}
	return expense, nil
}
