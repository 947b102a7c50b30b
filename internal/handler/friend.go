package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListFriends(c *gin.Context) {
	links, err := h.friends.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, links)
}

func (h *Handler) CreateFriend(c *gin.Context) {
	var req dto.FriendCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	link, err := h.friends.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, link)
}

func (h *Handler) DeleteFriend(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.friends.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "Friend deleted", "id": id})
}
