package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

func req(approverID int64, status string) *entity.ApprovalRequest {
	return &entity.ApprovalRequest{ApproverID: approverID, Status: status}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyThreshold, p)

	p, err = ParsePolicy("unanimous")
	require.NoError(t, err)
	assert.Equal(t, PolicyUnanimous, p)

	_, err = ParsePolicy("majority")
	assert.Error(t, err)
}

func TestProject(t *testing.T) {
	const (
		pending  = entity.RequestStatusPending
		approved = entity.RequestStatusApproved
		rejected = entity.RequestStatusRejected
	)

	parallel := func(pct int, required ...bool) *entity.ApprovalPlan {
		p := &entity.ApprovalPlan{MinimumApprovalPercentage: pct}
		for i, r := range required {
			p.Steps = append(p.Steps, entity.PlanStep{ApproverID: int64(i + 1), Position: i + 1, Required: r})
		}
		return p
	}

	tests := []struct {
		name     string
		policy   Policy
		plan     *entity.ApprovalPlan
		requests []*entity.ApprovalRequest
		want     string
	}{
		{
			name:     "no requests",
			policy:   PolicyThreshold,
			plan:     parallel(100, false),
			requests: nil,
			want:     "",
		},
		{
			name:     "single rejection is terminal",
			policy:   PolicyThreshold,
			plan:     parallel(50, false, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved), req(3, rejected)},
			want:     entity.ExpenseStatusRejected,
		},
		{
			name:     "unanimous waits for every approver",
			policy:   PolicyUnanimous,
			plan:     parallel(50, false, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved), req(3, pending)},
			want:     "",
		},
		{
			name:     "unanimous all approved",
			policy:   PolicyUnanimous,
			plan:     parallel(50, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved)},
			want:     entity.ExpenseStatusApproved,
		},
		{
			name:     "threshold at 100 behaves like unanimous",
			policy:   PolicyThreshold,
			plan:     parallel(100, false, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved), req(3, pending)},
			want:     "",
		},
		{
			name:     "threshold met by two of three at 60",
			policy:   PolicyThreshold,
			plan:     parallel(60, false, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved), req(3, pending)},
			want:     entity.ExpenseStatusApproved,
		},
		{
			name:     "threshold not met by one of three at 60",
			policy:   PolicyThreshold,
			plan:     parallel(60, false, false, false),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, pending), req(3, pending)},
			want:     "",
		},
		{
			name:     "required approver still pending blocks threshold",
			policy:   PolicyThreshold,
			plan:     parallel(50, true, false, false),
			requests: []*entity.ApprovalRequest{req(1, pending), req(2, approved), req(3, approved)},
			want:     "",
		},
		{
			name:     "only required approvers",
			policy:   PolicyThreshold,
			plan:     parallel(100, true, true),
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved)},
			want:     entity.ExpenseStatusApproved,
		},
		{
			name:     "uncreated sequential step counts as not approved",
			policy:   PolicyThreshold,
			plan:     parallel(100, true, false),
			requests: []*entity.ApprovalRequest{req(1, approved)},
			want:     "",
		},
		{
			name:     "nil plan falls back to request set",
			policy:   PolicyThreshold,
			plan:     nil,
			requests: []*entity.ApprovalRequest{req(1, approved), req(2, approved)},
			want:     entity.ExpenseStatusApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Project(tt.policy, tt.plan, tt.requests))
		})
	}
}
