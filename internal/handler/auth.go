package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClientID returns the GitHub OAuth client id as plain text.
func (h *Handler) ClientID(c *gin.Context) {
	c.String(http.StatusOK, h.auth.ClientID())
}

// Login exchanges a GitHub OAuth code and sets the session cookie.
func (h *Handler) Login(c *gin.Context) {
	var q dto.LoginQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), q.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.TokenName, token, h.cfg.TokenExpireDays*24*60*60, "/", "", h.cfg.SecureCookie, true)
	utils.Success(c, user)
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.TokenName, "", -1, "/", "", h.cfg.SecureCookie, true)
	utils.Success(c, gin.H{"success": true})
}

// CurrentUser returns the signed in user.
func (h *Handler) CurrentUser(c *gin.Context) {
	if _, ok := utils.CurrentUserID(c); !ok {
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user := currentUser(c)
	if user == nil {
		utils.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	utils.Success(c, user)
}
