package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

const defaultNotificationPageSize = 20

// NotificationService turns workflow events into in-app notifications and serves them to users
type NotificationService interface {
	// Register subscribes the notification handlers to d
	Register(d dispatcher.Dispatcher)

	List(ctx context.Context, p entity.Principal, limit, offset int) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, p entity.Principal) (int, error)
	MarkRead(ctx context.Context, p entity.Principal, ids []string) (int64, error)
	MarkAllRead(ctx context.Context, p entity.Principal) (int64, error)
	Delete(ctx context.Context, p entity.Principal, id string) error

	// PurgeOlderThan deletes notifications created before now minus age
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type notificationServiceImpl struct {
	notifications port.NotificationRepository
	directory     port.DirectoryRepository
	messenger     port.ChatMessenger
	logger        Logger
	now           func() time.Time
}

// NewNotificationService creates a new NotificationService. messenger may be nil when no chat channel is configured.
func NewNotificationService(
	notifications port.NotificationRepository,
	directory port.DirectoryRepository,
	messenger port.ChatMessenger,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notifications: notifications,
		directory:     directory,
		messenger:     messenger,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeApprovalRequested, "notify-approver", s.onApprovalRequested)
	d.SubscribeNamed(event.TypeExpenseApproved, "notify-employee-approved", s.onExpenseDecided)
	d.SubscribeNamed(event.TypeExpenseRejected, "notify-employee-rejected", s.onExpenseDecided)
	d.SubscribeNamed(event.TypeRuleUpdated, "notify-rule-updated", s.onRuleUpdated)
}

func (s *notificationServiceImpl) onApprovalRequested(ctx context.Context, evt *event.Event) error {
	employeeName := "An employee"
	if employee, err := s.directory.GetUser(ctx, evt.GetPayloadInt(event.KeyEmployeeID)); err == nil && employee != nil {
		employeeName = employee.FullName()
	}

	return s.notify(ctx, evt.GetPayloadInt(event.KeyApproverID), evt.GetPayloadInt(event.KeyCompanyID),
		entity.NotificationExpenseSubmitted,
		"New Expense Submitted",
		fmt.Sprintf("%s submitted an expense of %s %s for approval.",
			employeeName, evt.GetPayloadString(event.KeyAmount), evt.GetPayloadString(event.KeyCurrency)),
		map[string]interface{}{
			"expense_id":  evt.ExpenseID,
			"request_id":  evt.GetPayloadInt(event.KeyRequestID),
			"employee_id": evt.GetPayloadInt(event.KeyEmployeeID),
		},
	)
}

func (s *notificationServiceImpl) onExpenseDecided(ctx context.Context, evt *event.Event) error {
	amount := fmt.Sprintf("%s %s", evt.GetPayloadString(event.KeyAmount), evt.GetPayloadString(event.KeyCurrency))

	by := ""
	if name := evt.GetPayloadString(event.KeyApproverName); name != "" {
		by = " by " + name
	}

	var notifType, title, message string
	if evt.Type == event.TypeExpenseApproved {
		notifType = entity.NotificationExpenseApproved
		title = "Expense Approved"
		message = fmt.Sprintf("Your expense of %s has been approved%s.", amount, by)
	} else {
		notifType = entity.NotificationExpenseRejected
		title = "Expense Rejected"
		message = fmt.Sprintf("Your expense of %s has been rejected%s.", amount, by)
		if reason := evt.GetPayloadString(event.KeyComments); reason != "" {
			message += " Reason: " + reason
		}
	}

	return s.notify(ctx, evt.GetPayloadInt(event.KeyEmployeeID), evt.GetPayloadInt(event.KeyCompanyID),
		notifType, title, message,
		map[string]interface{}{
			"expense_id":  evt.ExpenseID,
			"approver_id": evt.GetPayloadInt(event.KeyApproverID),
		},
	)
}

func (s *notificationServiceImpl) onRuleUpdated(ctx context.Context, evt *event.Event) error {
	adminName := "an administrator"
	if admin, err := s.directory.GetUser(ctx, evt.GetPayloadInt(event.KeyUpdatedBy)); err == nil && admin != nil {
		adminName = admin.FullName()
	}

	return s.notify(ctx, evt.GetPayloadInt(event.KeyEmployeeID), evt.GetPayloadInt(event.KeyCompanyID),
		entity.NotificationApprovalRuleUpdated,
		"Approval Rules Updated",
		fmt.Sprintf("The approval rules have been updated by %s. Please review the changes.", adminName),
		map[string]interface{}{"updated_by": evt.GetPayloadInt(event.KeyUpdatedBy)},
	)
}

// notify stores the in-app notification and mirrors it to chat when the user has a chat identity.
// Chat delivery is best effort.
func (s *notificationServiceImpl) notify(ctx context.Context, userID, companyID int64, notifType, title, message string, data map[string]interface{}) error {
	if userID == 0 {
		return fmt.Errorf("notification %s has no recipient", notifType)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}

	n := &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		CompanyID: companyID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		Data:      string(raw),
		CreatedAt: s.now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}

	s.logger.Info("Notification created", "user_id", userID, "type", notifType, "notification_id", n.ID)

	if s.messenger == nil {
		return nil
	}
	user, err := s.directory.GetUser(ctx, userID)
	if err != nil || user == nil || user.LarkOpenID == "" {
		return nil
	}
	if err := s.messenger.SendText(ctx, user.LarkOpenID, title+"\n"+message); err != nil {
		s.logger.Error("Failed to deliver chat notification", "user_id", userID, "type", notifType, "error", err)
	}
	return nil
}

func (s *notificationServiceImpl) List(ctx context.Context, p entity.Principal, limit, offset int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultNotificationPageSize
	}
	if offset < 0 {
		offset = 0
	}
	list, err := s.notifications.ListByUser(ctx, p.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *notificationServiceImpl) UnreadCount(ctx context.Context, p entity.Principal) (int, error) {
	n, err := s.notifications.CountUnread(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, p entity.Principal, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: notification ids are required", entity.ErrInvalidInput)
	}
	n, err := s.notifications.MarkRead(ctx, p.UserID, ids)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, p entity.Principal) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, p.UserID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationServiceImpl) Delete(ctx context.Context, p entity.Principal, id string) error {
	ok, err := s.notifications.Delete(ctx, p.UserID, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", entity.ErrNotFound, id)
	}
	return nil
}

func (s *notificationServiceImpl) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().Add(-age)
	n, err := s.notifications.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	if n > 0 {
		s.logger.Info("Old notifications deleted", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
