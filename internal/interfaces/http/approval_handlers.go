package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// DecisionRequest is the body of approve/reject calls
type DecisionRequest struct {
	Comments string `json:"comments"`
}

// ProcessRequest is the body of POST /api/approvals/:id/process
type ProcessRequest struct {
	Action   string `json:"action" binding:"required"`
	Comments string `json:"comments"`
}

// ListPendingApprovals handles GET /api/approvals/pending
func (h *Handlers) ListPendingApprovals(c *gin.Context) {
	pending, err := h.services.Approvals.ListPending(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, "list pending approvals", err)
		return
	}
	ok(c, http.StatusOK, pending)
}

// Approve handles POST /api/approvals/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	h.decide(c, entity.OutcomeApproved)
}

// Reject handles POST /api/approvals/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	h.decide(c, entity.OutcomeRejected)
}

// Process handles POST /api/approvals/:id/process
func (h *Handlers) Process(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	h.record(c, id, req.Action, req.Comments)
}

func (h *Handlers) decide(c *gin.Context, outcome string) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req DecisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body: "+err.Error())
			return
		}
	}
	h.record(c, id, outcome, req.Comments)
}

func (h *Handlers) record(c *gin.Context, requestID int64, outcome, comments string) {
	result, err := h.services.Approvals.Decide(c.Request.Context(), principal(c), requestID, outcome, comments)
	if err != nil {
		h.fail(c, "record decision", err)
		return
	}
	ok(c, http.StatusOK, result)
}

// ApprovalHistory handles GET /api/expenses/:id/approvals
func (h *Handlers) ApprovalHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	history, err := h.services.Approvals.History(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "approval history", err)
		return
	}
	ok(c, http.StatusOK, history)
}

// ExportApprovalHistory handles GET /api/expenses/:id/approvals/export
func (h *Handlers) ExportApprovalHistory(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	file, err := h.services.Approvals.ExportHistory(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "export approval history", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Reproject handles POST /api/expenses/:id/reproject
func (h *Handlers) Reproject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	status, err := h.services.Approvals.Reproject(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "reproject expense", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"expense_id": id, "status": status})
}
