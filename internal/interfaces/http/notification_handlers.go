package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MarkReadRequest is the body of PATCH /api/notifications/mark-read
type MarkReadRequest struct {
	NotificationIDs []string `json:"notification_ids" binding:"required"`
}

// ListNotifications handles GET /api/notifications
func (h *Handlers) ListNotifications(c *gin.Context) {
	limit, offset := page(c, 20)
	list, err := h.services.Notifications.List(c.Request.Context(), principal(c), limit, offset)
	if err != nil {
		h.fail(c, "list notifications", err)
		return
	}
	ok(c, http.StatusOK, list)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *Handlers) UnreadCount(c *gin.Context) {
	count, err := h.services.Notifications.UnreadCount(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, "count unread notifications", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead handles PATCH /api/notifications/mark-read
func (h *Handlers) MarkRead(c *gin.Context) {
	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	n, err := h.services.Notifications.MarkRead(c.Request.Context(), principal(c), req.NotificationIDs)
	if err != nil {
		h.fail(c, "mark notifications read", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": n})
}

// MarkAllRead handles PATCH /api/notifications/mark-all-read
func (h *Handlers) MarkAllRead(c *gin.Context) {
	n, err := h.services.Notifications.MarkAllRead(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, "mark all notifications read", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": n})
}

// DeleteNotification handles DELETE /api/notifications/:id
func (h *Handlers) DeleteNotification(c *gin.Context) {
	if err := h.services.Notifications.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		h.fail(c, "delete notification", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": true})
}
