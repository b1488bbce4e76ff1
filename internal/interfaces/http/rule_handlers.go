package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// UpsertRuleRequest is the body of PUT /api/rules/:employeeId
type UpsertRuleRequest struct {
	Description               string                `json:"description"`
	ManagerID                 int64                 `json:"manager_id"`
	IsManagerApprover         bool                  `json:"is_manager_approver"`
	ApproversSequence         bool                  `json:"approvers_sequence"`
	MinimumApprovalPercentage int                   `json:"minimum_approval_percentage"`
	Approvers                 []entity.ApproverSpec `json:"approvers"`
}

// GetRule handles GET /api/rules/:employeeId
func (h *Handlers) GetRule(c *gin.Context) {
	employeeID, valid := pathID(c, "employeeId")
	if !valid {
		return
	}
	rule, err := h.services.Rules.Get(c.Request.Context(), principal(c), employeeID)
	if err != nil {
		h.fail(c, "get rule", err)
		return
	}
	ok(c, http.StatusOK, rule)
}

// UpsertRule handles PUT /api/rules/:employeeId
func (h *Handlers) UpsertRule(c *gin.Context) {
	employeeID, valid := pathID(c, "employeeId")
	if !valid {
		return
	}
	var req UpsertRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	rule, err := h.services.Rules.Upsert(c.Request.Context(), principal(c), &entity.ApprovalRule{
		EmployeeID:                employeeID,
		Description:               req.Description,
		ManagerID:                 req.ManagerID,
		IsManagerApprover:         req.IsManagerApprover,
		ApproversSequence:         req.ApproversSequence,
		MinimumApprovalPercentage: req.MinimumApprovalPercentage,
		Approvers:                 req.Approvers,
	})
	if err != nil {
		h.fail(c, "upsert rule", err)
		return
	}
	ok(c, http.StatusOK, rule)
}
