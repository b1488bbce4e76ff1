package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/policy"
)

// RuleService administers per-employee approval rules
type RuleService interface {
	Get(ctx context.Context, p entity.Principal, employeeID int64) (*entity.ApprovalRule, error)
	Upsert(ctx context.Context, p entity.Principal, rule *entity.ApprovalRule) (*entity.ApprovalRule, error)
}

type ruleServiceImpl struct {
	rules      port.ApprovalRuleRepository
	directory  port.DirectoryRepository
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewRuleService creates a new RuleService
func NewRuleService(
	rules port.ApprovalRuleRepository,
	directory port.DirectoryRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) RuleService {
	return &ruleServiceImpl{
		rules:      rules,
		directory:  directory,
		dispatcher: d,
		logger:     logger,
	}
}

// Get is open to admins and to the employee the rule belongs to
func (s *ruleServiceImpl) Get(ctx context.Context, p entity.Principal, employeeID int64) (*entity.ApprovalRule, error) {
	if !p.IsAdmin() && p.UserID != employeeID {
		return nil, entity.ErrPermissionDenied
	}
	if _, err := s.companyUser(ctx, p, employeeID); err != nil {
		return nil, err
	}

	rule, err := s.rules.GetByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get approval rule: %w", err)
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: no approval rule for employee %d", entity.ErrNotFound, employeeID)
	}
	return rule, nil
}

func (s *ruleServiceImpl) Upsert(ctx context.Context, p entity.Principal, rule *entity.ApprovalRule) (*entity.ApprovalRule, error) {
	if !p.IsAdmin() {
		return nil, entity.ErrPermissionDenied
	}
	if _, err := s.companyUser(ctx, p, rule.EmployeeID); err != nil {
		return nil, err
	}

	if rule.MinimumApprovalPercentage == 0 {
		rule.MinimumApprovalPercentage = policy.DefaultMinimumApprovalPercentage
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	if rule.ManagerID != 0 {
		if err := s.checkApprover(ctx, p, rule.ManagerID); err != nil {
			return nil, err
		}
	}
	for _, a := range rule.Approvers {
		if err := s.checkApprover(ctx, p, a.UserID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	rule.CompanyID = p.CompanyID
	rule.UpdatedAt = now
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	if err := s.rules.Upsert(ctx, rule); err != nil {
		s.logger.Error("Failed to save approval rule", "employee_id", rule.EmployeeID, "error", err)
		return nil, fmt.Errorf("save approval rule: %w", err)
	}

	s.logger.Info("Approval rule saved",
		"employee_id", rule.EmployeeID,
		"approver_count", len(rule.Approvers),
		"sequential", rule.ApproversSequence,
	)

	if s.dispatcher != nil {
		evt := event.NewEvent(event.TypeRuleUpdated, 0, map[string]interface{}{
			event.KeyEmployeeID: rule.EmployeeID,
			event.KeyCompanyID:  rule.CompanyID,
			event.KeyUpdatedBy:  p.UserID,
		})
		s.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
	}

	return rule, nil
}

func (s *ruleServiceImpl) companyUser(ctx context.Context, p entity.Principal, userID int64) (*entity.User, error) {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.CompanyID != p.CompanyID {
		return nil, fmt.Errorf("%w: user %d", entity.ErrNotFound, userID)
	}
	return user, nil
}

// checkApprover requires a manager or admin of the caller's company
func (s *ruleServiceImpl) checkApprover(ctx context.Context, p entity.Principal, userID int64) error {
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get approver: %w", err)
	}
	if user == nil || user.CompanyID != p.CompanyID {
		return fmt.Errorf("%w: approver %d is not a member of the company", entity.ErrInvalidRule, userID)
	}
	if user.Role != entity.RoleManager && user.Role != entity.RoleAdmin {
		return fmt.Errorf("%w: approver %d must be a manager or admin", entity.ErrInvalidRule, userID)
	}
	return nil
}
