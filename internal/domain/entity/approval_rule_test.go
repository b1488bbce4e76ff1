package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprovalRule_Validate(t *testing.T) {
	base := func() ApprovalRule {
		return ApprovalRule{
			EmployeeID:                1,
			ApproversSequence:         true,
			MinimumApprovalPercentage: 100,
			Approvers: []ApproverSpec{
				{UserID: 2, SequenceOrder: 1, Required: true},
				{UserID: 3, SequenceOrder: 2},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *ApprovalRule)
		wantErr bool
	}{
		{"valid sequential", func(r *ApprovalRule) {}, false},
		{"valid parallel ignores orders", func(r *ApprovalRule) {
			r.ApproversSequence = false
			r.Approvers[0].SequenceOrder = 5
			r.Approvers[1].SequenceOrder = 5
		}, false},
		{"no approvers", func(r *ApprovalRule) { r.Approvers = nil }, true},
		{"manager only", func(r *ApprovalRule) {
			r.Approvers = nil
			r.IsManagerApprover = true
		}, false},
		{"designated manager", func(r *ApprovalRule) { r.ManagerID = 9 }, false},
		{"self as designated manager", func(r *ApprovalRule) { r.ManagerID = 1 }, true},
		{"missing employee", func(r *ApprovalRule) { r.EmployeeID = 0 }, true},
		{"percentage zero", func(r *ApprovalRule) { r.MinimumApprovalPercentage = 0 }, true},
		{"percentage above 100", func(r *ApprovalRule) { r.MinimumApprovalPercentage = 101 }, true},
		{"duplicate approver", func(r *ApprovalRule) { r.Approvers[1].UserID = 2 }, true},
		{"self approval", func(r *ApprovalRule) { r.Approvers[1].UserID = 1 }, true},
		{"duplicate order", func(r *ApprovalRule) { r.Approvers[1].SequenceOrder = 1 }, true},
		{"gap in order", func(r *ApprovalRule) { r.Approvers[1].SequenceOrder = 3 }, true},
		{"order from zero", func(r *ApprovalRule) {
			r.Approvers[0].SequenceOrder = 0
			r.Approvers[1].SequenceOrder = 1
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRule)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApprovalRule_OrderedApproversKeepsInput(t *testing.T) {
	r := ApprovalRule{Approvers: []ApproverSpec{{UserID: 3, SequenceOrder: 2}, {UserID: 2, SequenceOrder: 1}}}

	ordered := r.OrderedApprovers()

	assert.Equal(t, int64(2), ordered[0].UserID)
	assert.Equal(t, int64(3), r.Approvers[0].UserID)
}

func TestPrincipal_Roles(t *testing.T) {
	assert.True(t, Principal{Role: RoleAdmin}.CanApprove())
	assert.True(t, Principal{Role: RoleManager}.CanApprove())
	assert.False(t, Principal{Role: RoleEmployee}.CanApprove())
	assert.True(t, Principal{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Principal{Role: RoleManager}.IsAdmin())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "ada@example.com", (&User{Email: "ada@example.com"}).FullName())
}
