package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

// DirectoryRepository implements port.DirectoryRepository over the users,
// companies and expense_categories tables
type DirectoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sql.DB, logger *zap.Logger) port.DirectoryRepository {
	return &DirectoryRepository{db: db, logger: logger}
}

// GetUser retrieves a user, or nil
func (r *DirectoryRepository) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	var (
		u          entity.User
		managerID  sql.NullInt64
		larkOpenID sql.NullString
	)
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, company_id, first_name, last_name, email, role, manager_id, lark_open_id
		FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &managerID, &larkOpenID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.ManagerID = managerID.Int64
	u.LarkOpenID = larkOpenID.String
	return &u, nil
}

// GetCompany retrieves a company, or nil
func (r *DirectoryRepository) GetCompany(ctx context.Context, id int64) (*entity.Company, error) {
	var c entity.Company
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, base_currency FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.BaseCurrency)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get company", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// GetCategory retrieves an expense category, or nil
func (r *DirectoryRepository) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	var c entity.Category
	err := sqlite.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name FROM expense_categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get category", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

// ListDirectReports returns the ids of users whose manager is managerID
func (r *DirectoryRepository) ListDirectReports(ctx context.Context, managerID int64) ([]int64, error) {
	rows, err := sqlite.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id FROM users WHERE manager_id = ? ORDER BY id`, managerID)
	if err != nil {
		r.logger.Error("Failed to list direct reports", zap.Int64("manager_id", managerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list direct reports: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ port.DirectoryRepository = (*DirectoryRepository)(nil)
