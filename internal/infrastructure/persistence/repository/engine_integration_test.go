package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-approval/internal/application/workflow"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/persistence/sqlite"
)

type sqliteHarness struct {
	repos    workflow.Repositories
	tx       *sqlite.DB
	expenses *ExpenseRepository
}

func newSQLiteHarness(t *testing.T) *sqliteHarness {
	db := openTestDB(t)
	logger := zap.NewNop()
	h := &sqliteHarness{
		tx:       sqlite.NewDB(db, logger),
		expenses: &ExpenseRepository{db: db, logger: logger},
	}
	h.repos = workflow.Repositories{
		Expenses:  h.expenses,
		Rules:     NewApprovalRuleRepository(db, logger),
		Plans:     NewApprovalPlanRepository(db, logger),
		Requests:  NewApprovalRequestRepository(db, logger),
		Directory: NewDirectoryRepository(db, logger),
	}
	return h
}

// engine returns an independent engine, as another server process would have
func (h *sqliteHarness) engine() workflow.Engine {
	return workflow.NewEngine(h.repos, h.tx)
}

func (h *sqliteHarness) submitted(t *testing.T, employeeID int64) int64 {
	ctx := context.Background()
	e := newExpense(employeeID, entity.ExpenseStatusDraft)
	require.NoError(t, h.expenses.Create(ctx, e))
	ok, err := h.expenses.MarkSubmitted(ctx, e.ID, entity.ExpenseStatusDraft, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	return e.ID
}

func TestEngineOnSQLite_SequentialFlow(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHarness(t)
	require.NoError(t, h.repos.Rules.Upsert(ctx, &entity.ApprovalRule{
		EmployeeID: 1, CompanyID: 1, IsManagerApprover: true, ApproversSequence: true,
		MinimumApprovalPercentage: 100,
		Approvers: []entity.ApproverSpec{
			{UserID: 11, SequenceOrder: 1},
			{UserID: 12, SequenceOrder: 2},
		},
	}))

	id := h.submitted(t, 1)
	engine := h.engine()

	created, err := engine.InitiateApprovals(ctx, id)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, int64(10), created[0].ApproverID, "manager goes first")

	next := created[0]
	for _, approver := range []int64{10, 11, 12} {
		require.Equal(t, approver, next.ApproverID)
		res, err := engine.RecordDecision(ctx, next.ID, approver, entity.OutcomeApproved, "")
		require.NoError(t, err)
		next = res.Activated
		if approver == 12 {
			assert.Nil(t, next)
			assert.Equal(t, entity.ExpenseStatusApproved, res.ExpenseStatus)
		}
	}

	e, err := h.expenses.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusApproved, e.Status)

	history, err := h.repos.Requests.ListHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestEngineOnSQLite_ConcurrentDecisionsAcrossEngines(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHarness(t)

	id := h.submitted(t, 1)
	created, err := h.engine().InitiateApprovals(ctx, id)
	require.NoError(t, err)
	require.Len(t, created, 1)
	reqID := created[0].ID

	const racers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		processed int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		outcome := entity.OutcomeApproved
		if i%2 == 1 {
			outcome = entity.OutcomeRejected
		}
		go func(engine workflow.Engine, outcome string) {
			defer wg.Done()
			_, err := engine.RecordDecision(ctx, reqID, 10, outcome, "")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, entity.ErrAlreadyProcessed):
				processed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(h.engine(), outcome)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, racers-1, processed)

	req, err := h.repos.Requests.GetByID(ctx, reqID)
	require.NoError(t, err)
	e, err := h.expenses.GetByID(ctx, id)
	require.NoError(t, err)
	if req.Status == entity.RequestStatusApproved {
		assert.Equal(t, entity.ExpenseStatusApproved, e.Status)
	} else {
		assert.Equal(t, entity.ExpenseStatusRejected, e.Status)
	}
}

func TestEngineOnSQLite_RejectionWinsOverParallelApproval(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHarness(t)
	require.NoError(t, h.repos.Rules.Upsert(ctx, &entity.ApprovalRule{
		EmployeeID: 2, CompanyID: 1, MinimumApprovalPercentage: 100,
		Approvers: []entity.ApproverSpec{{UserID: 10, Required: true}, {UserID: 11, Required: true}},
	}))

	id := h.submitted(t, 2)
	created, err := h.engine().InitiateApprovals(ctx, id)
	require.NoError(t, err)
	require.Len(t, created, 2)

	var wg sync.WaitGroup
	for _, req := range created {
		wg.Add(1)
		outcome := entity.OutcomeApproved
		if req.ApproverID == 11 {
			outcome = entity.OutcomeRejected
		}
		go func(engine workflow.Engine, req *entity.ApprovalRequest, outcome string) {
			defer wg.Done()
			_, err := engine.RecordDecision(ctx, req.ID, req.ApproverID, outcome, "")
			if err != nil && !errors.Is(err, entity.ErrAlreadyProcessed) {
				t.Errorf("unexpected error: %v", err)
			}
		}(h.engine(), req, outcome)
	}
	wg.Wait()

	e, err := h.expenses.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.ExpenseStatusRejected, e.Status)
}

func TestEngineOnSQLite_NoApproverConfigured(t *testing.T) {
	ctx := context.Background()
	h := newSQLiteHarness(t)

	// Maya has no manager and no rule
	id := h.submitted(t, 10)
	_, err := h.engine().InitiateApprovals(ctx, id)
	assert.ErrorIs(t, err, entity.ErrNoApproverConfigured)

	requests, err := h.repos.Requests.ListByExpense(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, requests)

	plan, err := h.repos.Plans.GetByExpenseID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, plan, "plan write rolled back")
}
