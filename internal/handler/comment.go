package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"

	"github.com/gin-gonic/gin"
)

// ListComments returns one page of comment threads of an article.
func (h *Handler) ListComments(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.comments.Forest(c.Request.Context(), currentUser(c), articleID, q.Page)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) PostComment(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.CommentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.comments.Post(c.Request.Context(), currentUser(c), articleID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, comment)
}

func (h *Handler) EditComment(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "comment")
	if !ok {
		return
	}
	var req dto.CommentEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.comments.Edit(c.Request.Context(), currentUser(c), articleID, commentID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, comment)
}

// DeleteComment removes a comment and all replies below it.
func (h *Handler) DeleteComment(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	commentID, ok := paramID(c, "comment")
	if !ok {
		return
	}
	if err := h.comments.Delete(c.Request.Context(), currentUser(c), articleID, commentID); err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"success": true})
}
