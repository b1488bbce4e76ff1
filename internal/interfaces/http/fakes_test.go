package http

import (
	"context"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeExpenses struct {
	created *service.CreateExpenseInput
	err     error
}

func (f *fakeExpenses) CreateDraft(ctx context.Context, p entity.Principal, in service.CreateExpenseInput) (*entity.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &in
	return &entity.Expense{ID: 1, EmployeeID: p.UserID, Amount: in.Amount, Currency: in.Currency, Status: entity.ExpenseStatusDraft}, nil
}

func (f *fakeExpenses) Get(ctx context.Context, p entity.Principal, id int64) (*entity.Expense, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.Expense{ID: id, Status: entity.ExpenseStatusSubmitted}, nil
}

func (f *fakeExpenses) List(ctx context.Context, p entity.Principal, status string, limit, offset int) ([]*entity.Expense, error) {
	return []*entity.Expense{{ID: 1, Status: status}}, f.err
}

func (f *fakeExpenses) Submit(ctx context.Context, p entity.Principal, id int64) (*service.SubmitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.SubmitResult{Expense: &entity.Expense{ID: id, Status: entity.ExpenseStatusSubmitted}}, nil
}

type decisionCall struct {
	caller    entity.Principal
	requestID int64
	outcome   string
	comments  string
}

type fakeApprovals struct {
	decided *decisionCall
	err     error
}

func (f *fakeApprovals) ListPending(ctx context.Context, p entity.Principal) ([]*port.PendingApproval, error) {
	return []*port.PendingApproval{{EmployeeName: "Erin Employee"}}, f.err
}

func (f *fakeApprovals) Decide(ctx context.Context, p entity.Principal, requestID int64, outcome, comments string) (*workflow.DecisionResult, error) {
	f.decided = &decisionCall{caller: p, requestID: requestID, outcome: outcome, comments: comments}
	if f.err != nil {
		return nil, f.err
	}
	return &workflow.DecisionResult{
		Request:       &entity.ApprovalRequest{ID: requestID, Status: outcome},
		ExpenseStatus: entity.ExpenseStatusSubmitted,
	}, nil
}

func (f *fakeApprovals) History(ctx context.Context, p entity.Principal, expenseID int64) ([]*port.ApprovalHistoryEntry, error) {
	return nil, f.err
}

func (f *fakeApprovals) ExportHistory(ctx context.Context, p entity.Principal, expenseID int64) (*service.ExportFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.ExportFile{Name: "expense-7-approvals.xlsx", ContentType: "application/test", Data: []byte("xlsx")}, nil
}

func (f *fakeApprovals) Reproject(ctx context.Context, p entity.Principal, expenseID int64) (string, error) {
	return entity.ExpenseStatusApproved, f.err
}

type fakeRules struct {
	upserted *entity.ApprovalRule
	err      error
}

func (f *fakeRules) Get(ctx context.Context, p entity.Principal, employeeID int64) (*entity.ApprovalRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &entity.ApprovalRule{EmployeeID: employeeID}, nil
}

func (f *fakeRules) Upsert(ctx context.Context, p entity.Principal, rule *entity.ApprovalRule) (*entity.ApprovalRule, error) {
	f.upserted = rule
	return rule, f.err
}

type fakeNotifications struct {
	markedIDs []string
	limit     int
	offset    int
	err       error
}

func (f *fakeNotifications) Register(d dispatcher.Dispatcher) {}

func (f *fakeNotifications) List(ctx context.Context, p entity.Principal, limit, offset int) ([]*entity.Notification, error) {
	f.limit, f.offset = limit, offset
	return []*entity.Notification{{ID: "n1", UserID: p.UserID}}, f.err
}

func (f *fakeNotifications) UnreadCount(ctx context.Context, p entity.Principal) (int, error) {
	return 3, f.err
}

func (f *fakeNotifications) MarkRead(ctx context.Context, p entity.Principal, ids []string) (int64, error) {
	f.markedIDs = ids
	return int64(len(ids)), f.err
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, p entity.Principal) (int64, error) {
	return 5, f.err
}

func (f *fakeNotifications) Delete(ctx context.Context, p entity.Principal, id string) error {
	return f.err
}

func (f *fakeNotifications) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	return 0, nil
}

type fakeHealth map[string]error

func (f fakeHealth) Health(ctx context.Context) map[string]error { return f }
