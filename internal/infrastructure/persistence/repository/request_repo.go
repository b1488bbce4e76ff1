package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ApprovalRequestRepository implements port.ApprovalRequestRepository
type ApprovalRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRequestRepository creates a new approval request repository
func NewApprovalRequestRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRequestRepository {
	return &ApprovalRequestRepository{db: db, logger: logger}
}

const requestColumns = `r.id, r.expense_id, r.approver_id, r.position, r.required,
	r.status, r.comments, r.decided_at, r.created_at`

// Create inserts a request. A second request for the same approver and expense fails.
func (r *ApprovalRequestRepository) Create(ctx context.Context, req *entity.ApprovalRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = entity.RequestStatusPending
	}

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO approval_requests (
			expense_id, approver_id, position, required, status, comments, decided_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ExpenseID, req.ApproverID, req.Position, req.Required, req.Status,
		nullString(req.Comments), nullTime(req.DecidedAt), req.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval request",
			zap.Int64("expense_id", req.ExpenseID),
			zap.Int64("approver_id", req.ApproverID),
			zap.Error(err))
		return fmt.Errorf("failed to create approval request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

// GetByID retrieves a request, or nil
func (r *ApprovalRequestRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	row := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM approval_requests r WHERE r.id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval request: %w", err)
	}
	return req, nil
}

// ListByExpense returns all requests of an expense in plan order
func (r *ApprovalRequestRepository) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM approval_requests r
		WHERE r.expense_id = ?
		ORDER BY r.position, r.id`, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approval requests",
			zap.Int64("expense_id", expenseID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list approval requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// ListPendingByApprover returns the approver's open requests on expenses still awaiting an outcome
func (r *ApprovalRequestRepository) ListPendingByApprover(ctx context.Context, approverID int64) ([]*port.PendingApproval, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+requestColumns+`,
			e.employee_id, u.first_name, u.last_name, u.email,
			e.description, c.name,
			e.amount, e.currency, e.amount_in_base_currency, e.submission_time
		FROM approval_requests r
		JOIN expenses e ON e.id = r.expense_id
		JOIN users u ON u.id = e.employee_id
		LEFT JOIN expense_categories c ON c.id = e.category_id
		WHERE r.approver_id = ? AND r.status = ? AND e.status = ?
		ORDER BY e.submission_time, r.id`,
		approverID, entity.RequestStatusPending, entity.ExpenseStatusSubmitted)
	if err != nil {
		r.logger.Error("Failed to list pending approvals",
			zap.Int64("approver_id", approverID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	defer rows.Close()

	var pending []*port.PendingApproval
	for rows.Next() {
		var (
			p                      port.PendingApproval
			comments, category     sql.NullString
			decidedAt, submittedAt sql.NullTime
			first, last, email     string
		)
		err := rows.Scan(
			&p.ID, &p.ExpenseID, &p.ApproverID, &p.Position, &p.Required,
			&p.Status, &comments, &decidedAt, &p.CreatedAt,
			&p.EmployeeID, &first, &last, &email,
			&p.Description, &category,
			&p.Amount, &p.Currency, &p.AmountInBaseCurrency, &submittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending approval: %w", err)
		}
		p.Comments = comments.String
		p.DecidedAt = timePtr(decidedAt)
		p.CategoryName = category.String
		p.SubmissionTime = timePtr(submittedAt)
		p.EmployeeName = displayName(first, last, email)
		pending = append(pending, &p)
	}
	return pending, rows.Err()
}

// ListHistory returns every request of an expense with the approver's name
func (r *ApprovalRequestRepository) ListHistory(ctx context.Context, expenseID int64) ([]*port.ApprovalHistoryEntry, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+requestColumns+`, u.first_name, u.last_name, u.email
		FROM approval_requests r
		JOIN users u ON u.id = r.approver_id
		WHERE r.expense_id = ?
		ORDER BY r.position, r.id`, expenseID)
	if err != nil {
		r.logger.Error("Failed to list approval history",
			zap.Int64("expense_id", expenseID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	var history []*port.ApprovalHistoryEntry
	for rows.Next() {
		var (
			h           port.ApprovalHistoryEntry
			comments    sql.NullString
			decidedAt   sql.NullTime
			first, last string
		)
		err := rows.Scan(
			&h.ID, &h.ExpenseID, &h.ApproverID, &h.Position, &h.Required,
			&h.Status, &comments, &decidedAt, &h.CreatedAt,
			&first, &last, &h.ApproverEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		h.Comments = comments.String
		h.DecidedAt = timePtr(decidedAt)
		h.ApproverName = displayName(first, last, h.ApproverEmail)
		history = append(history, &h)
	}
	return history, rows.Err()
}

// UpdateIfStatus records a decision only while the row still has the expected status
func (r *ApprovalRequestRepository) UpdateIfStatus(ctx context.Context, id int64, expected, next, comments string, decidedAt time.Time) (bool, error) {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE approval_requests SET status = ?, comments = ?, decided_at = ?
		WHERE id = ? AND status = ?`,
		next, nullString(comments), decidedAt.UTC(), id, expected)
	if err != nil {
		r.logger.Error("Failed to update approval request",
			zap.Int64("id", id),
			zap.String("next", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update approval request: %w", err)
	}
	return affected(result)
}

func scanRequest(s scanner) (*entity.ApprovalRequest, error) {
	var (
		req       entity.ApprovalRequest
		comments  sql.NullString
		decidedAt sql.NullTime
	)
	err := s.Scan(
		&req.ID, &req.ExpenseID, &req.ApproverID, &req.Position, &req.Required,
		&req.Status, &comments, &decidedAt, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Comments = comments.String
	req.DecidedAt = timePtr(decidedAt)
	return &req, nil
}

func displayName(first, last, email string) string {
	u := entity.User{FirstName: first, LastName: last, Email: email}
	return u.FullName()
}

var _ port.ApprovalRequestRepository = (*ApprovalRequestRepository)(nil)
