package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns unread replies to the caller's comments.
func (h *Handler) ListNotifications(c *gin.Context) {
	replies, err := h.notifications.List(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, replies)
}

func (h *Handler) CountNotifications(c *gin.Context) {
	n, err := h.notifications.Count(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, dto.NotificationCount{Count: n})
}

func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	if err := h.notifications.MarkRead(c.Request.Context(), currentUser(c)); err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"success": true})
}
