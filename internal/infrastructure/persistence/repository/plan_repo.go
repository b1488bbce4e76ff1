package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// ApprovalPlanRepository implements port.ApprovalPlanRepository.
// Steps are stored as a JSON array on the plan row.
type ApprovalPlanRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalPlanRepository creates a new approval plan repository
func NewApprovalPlanRepository(db *sql.DB, logger *zap.Logger) port.ApprovalPlanRepository {
	return &ApprovalPlanRepository{db: db, logger: logger}
}

// Save stores the plan, replacing any earlier plan for the same expense
func (r *ApprovalPlanRepository) Save(ctx context.Context, plan *entity.ApprovalPlan) error {
	steps, err := json.Marshal(plan.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal plan steps: %w", err)
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	_, err = sqlite.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT OR REPLACE INTO approval_plans (
			expense_id, sequential, minimum_approval_percentage, steps, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		plan.ExpenseID, plan.Sequential, plan.MinimumApprovalPercentage, string(steps), plan.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save approval plan",
			zap.Int64("expense_id", plan.ExpenseID),
			zap.Error(err))
		return fmt.Errorf("failed to save approval plan: %w", err)
	}
	return nil
}

// GetByExpenseID returns the plan of an expense, or nil
func (r *ApprovalPlanRepository) GetByExpenseID(ctx context.Context, expenseID int64) (*entity.ApprovalPlan, error) {
	var (
		plan  entity.ApprovalPlan
		steps string
	)
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT expense_id, sequential, minimum_approval_percentage, steps, created_at
		FROM approval_plans
		WHERE expense_id = ?`, expenseID).Scan(
		&plan.ExpenseID, &plan.Sequential, &plan.MinimumApprovalPercentage, &steps, &plan.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval plan",
			zap.Int64("expense_id", expenseID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get approval plan: %w", err)
	}

	if err := json.Unmarshal([]byte(steps), &plan.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan steps: %w", err)
	}
	return &plan, nil
}

var _ port.ApprovalPlanRepository = (*ApprovalPlanRepository)(nil)
