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

// ApprovalRuleRepository implements port.ApprovalRuleRepository.
// A rule row and its approver rows are always written together.
type ApprovalRuleRepository struct {
	db     *sql.DB
	tx     *sqlite.DB
	logger *zap.Logger
}

// NewApprovalRuleRepository creates a new approval rule repository
func NewApprovalRuleRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRuleRepository {
	return &ApprovalRuleRepository{db: db, tx: sqlite.NewDB(db, logger), logger: logger}
}

// GetByEmployee returns the employee's rule with its approvers, or nil
func (r *ApprovalRuleRepository) GetByEmployee(ctx context.Context, employeeID int64) (*entity.ApprovalRule, error) {
	conn := sqlite.Conn(ctx, r.db)

	var (
		rule        entity.ApprovalRule
		description sql.NullString
		managerID   sql.NullInt64
	)
	err := conn.QueryRowContext(ctx, `
		SELECT id, employee_id, company_id, description, manager_id,
			is_manager_approver, approvers_sequence, minimum_approval_percentage,
			created_at, updated_at
		FROM approval_rules
		WHERE employee_id = ?`, employeeID).Scan(
		&rule.ID, &rule.EmployeeID, &rule.CompanyID, &description, &managerID,
		&rule.IsManagerApprover, &rule.ApproversSequence, &rule.MinimumApprovalPercentage,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval rule",
			zap.Int64("employee_id", employeeID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval rule: %w", err)
	}
	rule.Description = description.String
	rule.ManagerID = managerID.Int64

	rows, err := conn.QueryContext(ctx, `
		SELECT user_id, required, sequence_order
		FROM approval_rule_approvers
		WHERE rule_id = ?
		ORDER BY sequence_order, id`, rule.ID)
	if err != nil {
		r.logger.Error("Failed to list rule approvers", zap.Int64("rule_id", rule.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to list rule approvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a entity.ApproverSpec
		if err := rows.Scan(&a.UserID, &a.Required, &a.SequenceOrder); err != nil {
			return nil, fmt.Errorf("failed to scan rule approver: %w", err)
		}
		rule.Approvers = append(rule.Approvers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Upsert replaces the employee's rule and its approver list in one transaction
func (r *ApprovalRuleRepository) Upsert(ctx context.Context, rule *entity.ApprovalRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		conn := sqlite.Conn(ctx, r.db)

		_, err := conn.ExecContext(ctx, `
			INSERT INTO approval_rules (
				employee_id, company_id, description, manager_id,
				is_manager_approver, approvers_sequence, minimum_approval_percentage,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(employee_id) DO UPDATE SET
				company_id = excluded.company_id,
				description = excluded.description,
				manager_id = excluded.manager_id,
				is_manager_approver = excluded.is_manager_approver,
				approvers_sequence = excluded.approvers_sequence,
				minimum_approval_percentage = excluded.minimum_approval_percentage,
				updated_at = excluded.updated_at`,
			rule.EmployeeID, rule.CompanyID, rule.Description, nullInt64(rule.ManagerID),
			rule.IsManagerApprover, rule.ApproversSequence, rule.MinimumApprovalPercentage,
			rule.CreatedAt, rule.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to upsert approval rule",
				zap.Int64("employee_id", rule.EmployeeID),
				zap.Error(err))
			return fmt.Errorf("failed to upsert approval rule: %w", err)
		}

		if err := conn.QueryRowContext(ctx,
			`SELECT id, created_at FROM approval_rules WHERE employee_id = ?`, rule.EmployeeID,
		).Scan(&rule.ID, &rule.CreatedAt); err != nil {
			return fmt.Errorf("failed to reload approval rule: %w", err)
		}

		if _, err := conn.ExecContext(ctx,
			`DELETE FROM approval_rule_approvers WHERE rule_id = ?`, rule.ID); err != nil {
			return fmt.Errorf("failed to clear rule approvers: %w", err)
		}

		for _, a := range rule.Approvers {
			if _, err := conn.ExecContext(ctx, `
				INSERT INTO approval_rule_approvers (rule_id, user_id, required, sequence_order)
				VALUES (?, ?, ?, ?)`,
				rule.ID, a.UserID, a.Required, a.SequenceOrder,
			); err != nil {
				r.logger.Error("Failed to insert rule approver",
					zap.Int64("rule_id", rule.ID),
					zap.Int64("user_id", a.UserID),
					zap.Error(err))
				return fmt.Errorf("failed to insert rule approver: %w", err)
			}
		}
		return nil
	})
}

var _ port.ApprovalRuleRepository = (*ApprovalRuleRepository)(nil)
