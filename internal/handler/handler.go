// Package handler exposes the blog services over HTTP.
package handler

import (
	"Go_Blog/config"
	"Go_Blog/internal/feed"
	"Go_Blog/internal/service"
	"Go_Blog/model"
	"Go_Blog/utils"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const ctxUser = "user"

// Deps lists the services a Handler serves.
type Deps struct {
	Config        *config.Config
	Users         *service.UserService
	Auth          *service.AuthService
	Articles      *service.ArticleService
	Comments      *service.CommentService
	Uploads       *service.UploadManager
	Assets        *service.AssetService
	Friends       *service.FriendService
	Notifications *service.NotificationService
	Feed          *feed.Generator
}

// Handler holds the HTTP endpoints.
type Handler struct {
	cfg           *config.Config
	users         *service.UserService
	auth          *service.AuthService
	articles      *service.ArticleService
	comments      *service.CommentService
	uploads       *service.UploadManager
	assets        *service.AssetService
	friends       *service.FriendService
	notifications *service.NotificationService
	feed          *feed.Generator
}

func New(d Deps) *Handler {
	return &Handler{
		cfg:           d.Config,
		users:         d.Users,
		auth:          d.Auth,
		articles:      d.Articles,
		comments:      d.Comments,
		uploads:       d.Uploads,
		assets:        d.Assets,
		friends:       d.Friends,
		notifications: d.Notifications,
		feed:          d.Feed,
	}
}

// LoadUser resolves the token subject to a stored user. Anonymous requests
// and tokens naming unknown users continue without one.
func (h *Handler) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := utils.CurrentUserID(c)
		if !ok {
			c.Next()
			return
		}
		user, err := h.users.Get(c.Request.Context(), id)
		if err == nil {
			c.Set(ctxUser, user)
		} else if !errors.Is(err, service.ErrNotFound) {
			writeError(c, err)
			return
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests with 401.
func (h *Handler) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

// RequirePermission rejects users below the given level with 403.
func (h *Handler) RequirePermission(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if user.Permission < level {
			utils.Fail(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	value, ok := c.Get(ctxUser)
	if !ok {
		return nil
	}
	user, _ := value.(*model.User)
	return user
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.Fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
