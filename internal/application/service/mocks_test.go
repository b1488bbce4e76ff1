package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockExpenseRepo struct {
	expenses           map[int64]*entity.Expense
	createFunc         func(ctx context.Context, e *entity.Expense) error
	listFunc           func(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error)
	markSubmittedErr   error
	markSubmittedCalls int
}

func (m *mockExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, e)
	}
	e.ID = int64(len(m.expenses) + 1)
	m.expenses[e.ID] = e
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	e, ok := m.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockExpenseRepo) List(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockExpenseRepo) UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error) {
	e, ok := m.expenses[id]
	if !ok || e.Status != expected {
		return false, nil
	}
	e.Status = next
	return true, nil
}

func (m *mockExpenseRepo) MarkSubmitted(ctx context.Context, id int64, expected string, at time.Time) (bool, error) {
	m.markSubmittedCalls++
	if m.markSubmittedErr != nil {
		return false, m.markSubmittedErr
	}
	e, ok := m.expenses[id]
	if !ok || e.Status != expected {
		return false, nil
	}
	e.Status = entity.ExpenseStatusSubmitted
	e.SubmissionTime = &at
	return true, nil
}

type mockRequestRepo struct {
	byExpense map[int64][]*entity.ApprovalRequest
	pending   []*port.PendingApproval
	history   []*port.ApprovalHistoryEntry
}

func (m *mockRequestRepo) Create(ctx context.Context, r *entity.ApprovalRequest) error { return nil }

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error) {
	return m.byExpense[expenseID], nil
}

func (m *mockRequestRepo) ListPendingByApprover(ctx context.Context, approverID int64) ([]*port.PendingApproval, error) {
	return m.pending, nil
}

func (m *mockRequestRepo) ListHistory(ctx context.Context, expenseID int64) ([]*port.ApprovalHistoryEntry, error) {
	return m.history, nil
}

func (m *mockRequestRepo) UpdateIfStatus(ctx context.Context, id int64, expected, next, comments string, decidedAt time.Time) (bool, error) {
	return false, nil
}

type mockDirectory struct {
	users      map[int64]*entity.User
	categories map[int64]*entity.Category
	reports    map[int64][]int64
}

func (m *mockDirectory) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	return m.users[id], nil
}

func (m *mockDirectory) GetCompany(ctx context.Context, id int64) (*entity.Company, error) {
	return &entity.Company{ID: id, Name: "Acme", BaseCurrency: "USD"}, nil
}

func (m *mockDirectory) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	return m.categories[id], nil
}

func (m *mockDirectory) ListDirectReports(ctx context.Context, managerID int64) ([]int64, error) {
	return m.reports[managerID], nil
}

type mockRuleRepo struct {
	rules     map[int64]*entity.ApprovalRule
	upsertErr error
}

func (m *mockRuleRepo) GetByEmployee(ctx context.Context, employeeID int64) (*entity.ApprovalRule, error) {
	return m.rules[employeeID], nil
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rules[rule.EmployeeID] = rule
	return nil
}

type mockNotificationRepo struct {
	mu      sync.Mutex
	created []*entity.Notification
	deleted bool
	cutoff  time.Time
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	n := 0
	for _, x := range m.created {
		if x.UserID == userID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID int64, ids []string) (int64, error) {
	return int64(len(ids)), nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, userID int64, id string) (bool, error) {
	return m.deleted, nil
}

func (m *mockNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	return 3, nil
}

type mockConverter struct {
	rate decimal.Decimal
	err  error
}

func (m *mockConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if m.err != nil {
		return decimal.Zero, m.err
	}
	if from == to {
		return amount, nil
	}
	return amount.Mul(m.rate), nil
}

type mockEngine struct {
	initiateFunc func(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error)
	decideFunc   func(ctx context.Context, requestID, approverID int64, outcome, comments string) (*workflow.DecisionResult, error)
	projected    int64
}

func (m *mockEngine) InitiateApprovals(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, expenseID)
	}
	return []*entity.ApprovalRequest{{ID: 1, ExpenseID: expenseID, Status: entity.RequestStatusPending}}, nil
}

func (m *mockEngine) RecordDecision(ctx context.Context, requestID, approverID int64, outcome, comments string) (*workflow.DecisionResult, error) {
	if m.decideFunc != nil {
		return m.decideFunc(ctx, requestID, approverID, outcome, comments)
	}
	return &workflow.DecisionResult{
		Request:       &entity.ApprovalRequest{ID: requestID, ApproverID: approverID, Status: outcome},
		ExpenseStatus: entity.ExpenseStatusSubmitted,
	}, nil
}

func (m *mockEngine) Project(ctx context.Context, expenseID int64) (string, error) {
	m.projected = expenseID
	return entity.ExpenseStatusApproved, nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockMessenger struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *mockMessenger) SendText(ctx context.Context, openID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, openID+":"+text)
	return m.err
}

type mockExporter struct {
	sheet *port.HistorySheet
}

func (m *mockExporter) ExportHistory(ctx context.Context, sheet *port.HistorySheet) ([]byte, error) {
	m.sheet = sheet
	return []byte("xlsx"), nil
}

func (m *mockExporter) ContentType() string   { return "application/test" }
func (m *mockExporter) FileExtension() string { return ".xlsx" }

// syncDispatcher records async events and runs handlers inline
type syncDispatcher struct {
	mu       sync.Mutex
	events   []*event.Event
	handlers map[event.Type][]dispatcher.Handler
}

func newSyncDispatcher() *syncDispatcher {
	return &syncDispatcher{handlers: make(map[event.Type][]dispatcher.Handler)}
}

func (d *syncDispatcher) Subscribe(t event.Type, h dispatcher.Handler) {
	d.handlers[t] = append(d.handlers[t], h)
}

func (d *syncDispatcher) SubscribeNamed(t event.Type, name string, h dispatcher.Handler) {
	d.Subscribe(t, h)
}

func (d *syncDispatcher) Unsubscribe(t event.Type, name string) {}

func (d *syncDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	for _, h := range d.handlers[evt.Type] {
		if err := h(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

func (d *syncDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.mu.Lock()
	d.events = append(d.events, evt)
	d.mu.Unlock()
	_ = d.Dispatch(ctx, evt)
}

func (d *syncDispatcher) ListHandlers(t event.Type) []dispatcher.HandlerInfo { return nil }

func (d *syncDispatcher) Close() error { return nil }

func newDirectory() *mockDirectory {
	return &mockDirectory{
		users: map[int64]*entity.User{
			1:  {ID: 1, CompanyID: 1, FirstName: "Erin", LastName: "Employee", Role: entity.RoleEmployee, ManagerID: 10},
			2:  {ID: 2, CompanyID: 1, FirstName: "Eli", LastName: "Other", Role: entity.RoleEmployee, ManagerID: 11},
			10: {ID: 10, CompanyID: 1, FirstName: "Maya", LastName: "Manager", Role: entity.RoleManager, LarkOpenID: "ou_maya"},
			11: {ID: 11, CompanyID: 1, FirstName: "Milo", LastName: "Manager", Role: entity.RoleManager},
			20: {ID: 20, CompanyID: 1, FirstName: "Ada", LastName: "Admin", Role: entity.RoleAdmin},
			30: {ID: 30, CompanyID: 2, FirstName: "Xavier", LastName: "Outsider", Role: entity.RoleManager},
		},
		categories: map[int64]*entity.Category{5: {ID: 5, Name: "Travel"}},
		reports:    map[int64][]int64{10: {1}},
	}
}

var (
	employee = entity.Principal{UserID: 1, CompanyID: 1, Role: entity.RoleEmployee}
	manager  = entity.Principal{UserID: 10, CompanyID: 1, Role: entity.RoleManager}
	other    = entity.Principal{UserID: 11, CompanyID: 1, Role: entity.RoleManager}
	admin    = entity.Principal{UserID: 20, CompanyID: 1, Role: entity.RoleAdmin}
	outsider = entity.Principal{UserID: 30, CompanyID: 2, Role: entity.RoleManager}
)
