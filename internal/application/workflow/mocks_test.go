package workflow

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
)

// memStore backs every repository port with maps
type memStore struct {
	mu       sync.Mutex
	expenses map[int64]*entity.Expense
	rules    map[int64]*entity.ApprovalRule
	plans    map[int64]*entity.ApprovalPlan
	requests map[int64]*entity.ApprovalRequest
	users    map[int64]*entity.User
	nextID   int64

	// forceConflicts makes the next n request compare-and-sets miss
	forceConflicts int
	createErr      error
}

func newMemStore() *memStore {
	return &memStore{
		expenses: make(map[int64]*entity.Expense),
		rules:    make(map[int64]*entity.ApprovalRule),
		plans:    make(map[int64]*entity.ApprovalPlan),
		requests: make(map[int64]*entity.ApprovalRequest),
		users:    make(map[int64]*entity.User),
	}
}

func (s *memStore) repos() Repositories {
	return Repositories{
		Expenses:  &mockExpenseRepo{s},
		Rules:     &mockRuleRepo{s},
		Plans:     &mockPlanRepo{s},
		Requests:  &mockRequestRepo{s},
		Directory: &mockDirectory{s},
	}
}

func (s *memStore) addUser(id, managerID int64, role string) {
	s.users[id] = &entity.User{ID: id, CompanyID: 1, FirstName: "User", LastName: string(rune('A' + id%26)), Role: role, ManagerID: managerID}
}

func (s *memStore) addSubmittedExpense(id, employeeID int64) {
	now := time.Now()
	s.expenses[id] = &entity.Expense{ID: id, EmployeeID: employeeID, CompanyID: 1, Status: entity.ExpenseStatusSubmitted, Currency: "USD", SubmissionTime: &now}
}

func (s *memStore) expenseStatus(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenses[id].Status
}

func (s *memStore) requestsFor(expenseID int64) []*entity.ApprovalRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.ApprovalRequest
	for _, r := range s.requests {
		if r.ExpenseID == expenseID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type mockExpenseRepo struct{ s *memStore }

func (m *mockExpenseRepo) Create(ctx context.Context, e *entity.Expense) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.nextID++
	e.ID = m.s.nextID
	m.s.expenses[e.ID] = e
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockExpenseRepo) List(ctx context.Context, filter port.ExpenseFilter) ([]*entity.Expense, error) {
	return nil, nil
}

func (m *mockExpenseRepo) UpdateStatusIf(ctx context.Context, id int64, expected, next string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.expenses[id]
	if !ok || e.Status != expected {
		return false, nil
	}
	e.Status = next
	return true, nil
}

func (m *mockExpenseRepo) MarkSubmitted(ctx context.Context, id int64, expected string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	e, ok := m.s.expenses[id]
	if !ok || e.Status != expected {
		return false, nil
	}
	e.Status = entity.ExpenseStatusSubmitted
	e.SubmissionTime = &at
	return true, nil
}

type mockRuleRepo struct{ s *memStore }

func (m *mockRuleRepo) GetByEmployee(ctx context.Context, employeeID int64) (*entity.ApprovalRule, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.rules[employeeID], nil
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule *entity.ApprovalRule) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.rules[rule.EmployeeID] = rule
	return nil
}

type mockPlanRepo struct{ s *memStore }

func (m *mockPlanRepo) Save(ctx context.Context, plan *entity.ApprovalPlan) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.plans[plan.ExpenseID] = plan
	return nil
}

func (m *mockPlanRepo) GetByExpenseID(ctx context.Context, expenseID int64) (*entity.ApprovalPlan, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.plans[expenseID], nil
}

type mockRequestRepo struct{ s *memStore }

func (m *mockRequestRepo) Create(ctx context.Context, r *entity.ApprovalRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.createErr != nil {
		return m.s.createErr
	}
	for _, existing := range m.s.requests {
		if existing.ExpenseID == r.ExpenseID && existing.ApproverID == r.ApproverID {
			return errors.New("UNIQUE constraint failed")
		}
	}
	m.s.nextID++
	r.ID = m.s.nextID
	cp := *r
	m.s.requests[r.ID] = &cp
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	r, ok := m.s.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalRequest, error) {
	return m.s.requestsFor(expenseID), nil
}

func (m *mockRequestRepo) ListPendingByApprover(ctx context.Context, approverID int64) ([]*port.PendingApproval, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListHistory(ctx context.Context, expenseID int64) ([]*port.ApprovalHistoryEntry, error) {
	return nil, nil
}

func (m *mockRequestRepo) UpdateIfStatus(ctx context.Context, id int64, expected, next, comments string, decidedAt time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.forceConflicts > 0 {
		m.s.forceConflicts--
		return false, nil
	}
	r, ok := m.s.requests[id]
	if !ok || r.Status != expected {
		return false, nil
	}
	r.Status = next
	r.Comments = comments
	r.DecidedAt = &decidedAt
	return true, nil
}

type mockDirectory struct{ s *memStore }

func (m *mockDirectory) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.users[id], nil
}

func (m *mockDirectory) GetCompany(ctx context.Context, id int64) (*entity.Company, error) {
	return &entity.Company{ID: id, BaseCurrency: "USD"}, nil
}

func (m *mockDirectory) GetCategory(ctx context.Context, id int64) (*entity.Category, error) {
	return nil, nil
}

func (m *mockDirectory) ListDirectReports(ctx context.Context, managerID int64) ([]int64, error) {
	return nil, nil
}

type mockTxManager struct {
	commitErr error
	calls     int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *mockDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.DispatchAsync(ctx, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

func (m *mockDispatcher) count(t event.Type) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func (m *mockDispatcher) last(t event.Type) *event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].Type == t {
			return m.events[i]
		}
	}
	return nil
}
