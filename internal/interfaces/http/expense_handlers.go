package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-approval/internal/application/service"
)

// CreateExpenseRequest is the body of POST /api/expenses
type CreateExpenseRequest struct {
	Description string          `json:"description" binding:"required"`
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" binding:"required"`
	PaidBy      string          `json:"paid_by"`
	Remarks     string          `json:"remarks"`
	ReceiptURL  string          `json:"receipt_url"`
}

// CreateExpense handles POST /api/expenses
func (h *Handlers) CreateExpense(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	expense, err := h.services.Expenses.CreateDraft(c.Request.Context(), principal(c), service.CreateExpenseInput{
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PaidBy:      req.PaidBy,
		Remarks:     req.Remarks,
		ReceiptURL:  req.ReceiptURL,
	})
	if err != nil {
		h.fail(c, "create expense", err)
		return
	}
	ok(c, http.StatusCreated, expense)
}

// ListExpenses handles GET /api/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	limit, offset := page(c, 20)
	expenses, err := h.services.Expenses.List(c.Request.Context(), principal(c), c.Query("status"), limit, offset)
	if err != nil {
		h.fail(c, "list expenses", err)
		return
	}
	ok(c, http.StatusOK, expenses)
}

// GetExpense handles GET /api/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	expense, err := h.services.Expenses.Get(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "get expense", err)
		return
	}
	ok(c, http.StatusOK, expense)
}

// SubmitExpense handles POST /api/expenses/:id/submit
func (h *Handlers) SubmitExpense(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	result, err := h.services.Expenses.Submit(c.Request.Context(), principal(c), id)
	if err != nil {
		h.fail(c, "submit expense", err)
		return
	}
	ok(c, http.StatusOK, result)
}
