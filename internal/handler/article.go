package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListArticles(c *gin.Context) {
	var q dto.ArticleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	page, err := h.articles.List(c.Request.Context(), currentUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, page)
}

func (h *Handler) GetArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	article, err := h.articles.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, article)
}

func (h *Handler) CreateArticle(c *gin.Context) {
	var req dto.ArticleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	article, err := h.articles.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, article)
}

// UpdateArticle applies a partial update guarded by the oldHash lock.
func (h *Handler) UpdateArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ArticleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	article, err := h.articles.Update(c.Request.Context(), currentUser(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, article)
}

func (h *Handler) DeleteArticle(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"success": true})
}
