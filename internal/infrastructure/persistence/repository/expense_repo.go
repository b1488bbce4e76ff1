package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ExpenseRepository implements port.ExpenseRepository
type ExpenseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, logger *zap.Logger) port.ExpenseRepository {
	return &ExpenseRepository{db: db, logger: logger}
}

const expenseColumns = `
	id, employee_id, company_id, description, category_id,
	amount, currency, amount_in_base_currency,
	paid_by, remarks, receipt_url, status, submission_time,
	created_at, updated_at`

// Create inserts a new expense and sets its ID
func (r *ExpenseRepository) Create(ctx context.Context, e *entity.Expense) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO expenses (
			employee_id, company_id, description, category_id,
			amount, currency, amount_in_base_currency,
			paid_by, remarks, receipt_url, status, submission_time,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EmployeeID, e.CompanyID, e.Description, nullInt64(e.CategoryID),
		e.Amount, e.Currency, e.AmountInBaseCurrency,
		nullString(e.PaidBy), nullString(e.Remarks), nullString(e.ReceiptURL),
		e.Status, nullTime(e.SubmissionTime),
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create expense",
			zap.Int64("employee_id", e.EmployeeID),
			zap.Error(err))
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// GetByID retrieves an expense, or nil when it does not exist
func (r *ExpenseRepository) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	row := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get expense", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// List returns expenses matching filter, newest first
func (r *ExpenseRepository) List(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CompanyID != 0 {
		where = append(where, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if len(filter.EmployeeIDs) > 0 {
		where = append(where, "employee_id IN ("+placeholders(len(filter.EmployeeIDs))+")")
		for _, id := range filter.EmployeeIDs {
			args = append(args, id)
		}
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*entity.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UpdateStatusIf moves the expense from expected to next
func (r *ExpenseRepository) UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error) {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE expenses SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		next, time.Now().UTC(), id, expected)
	if err != nil {
		r.logger.Error("Failed to update expense status",
			zap.Int64("id", id),
			zap.String("expected", expected),
			zap.String("next", next),
			zap.Error(err))
		return false, fmt.Errorf("failed to update expense status: %w", err)
	}
	return affected(result)
}

// MarkSubmitted moves the expense to submitted and stamps the submission time
func (r *ExpenseRepository) MarkSubmitted(ctx context.Context, id int64, expected string, at time.Time) (bool, error) {
	result, err := sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE expenses SET status = ?, submission_time = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		entity.ExpenseStatusSubmitted, at.UTC(), time.Now().UTC(), id, expected)
	if err != nil {
		r.logger.Error("Failed to submit expense", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to submit expense: %w", err)
	}
	return affected(result)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(s scanner) (*entity.Expense, error) {
	var (
		e                           entity.Expense
		categoryID                  sql.NullInt64
		paidBy, remarks, receiptURL sql.NullString
		submissionTime              sql.NullTime
	)
	err := s.Scan(
		&e.ID, &e.EmployeeID, &e.CompanyID, &e.Description, &categoryID,
		&e.Amount, &e.Currency, &e.AmountInBaseCurrency,
		&paidBy, &remarks, &receiptURL, &e.Status, &submissionTime,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.CategoryID = categoryID.Int64
	e.PaidBy = paidBy.String
	e.Remarks = remarks.String
	e.ReceiptURL = receiptURL.String
	e.SubmissionTime = timePtr(submissionTime)
	return &e, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

var _ port.ExpenseRepository = (*ExpenseRepository)(nil)
