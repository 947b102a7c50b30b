package router

import (
	"Go_Blog/config"
	"Go_Blog/internal/handler"
	"Go_Blog/internal/metrics"
	"Go_Blog/model"
	"Go_Blog/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter builds API routes.
func InitRouter(cfg *config.Config, h *handler.Handler, issuer *utils.TokenIssuer) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if !cfg.DisableAccessLog {
		r.Use(gin.Logger())
	}
	r.Use(metrics.Middleware())
	r.Use(utils.CORSMiddleware(cfg.CORSOrigins))
	r.Use(utils.Authenticate(issuer, cfg.TokenName), h.LoadUser())

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/robots.txt", h.Robots)
	r.GET("/sitemap.xml", h.Sitemap)
	r.GET("/assets/:name", h.ServeAsset)

	api := r.Group("/api")
	{
		api.GET("/auth/id", h.ClientID)
		api.POST("/auth/login", h.Login)
		api.POST("/auth/logout", h.Logout)
		api.GET("/user", h.CurrentUser)

		api.GET("/site/info", h.SiteInfo)
		api.GET("/site/random_background", h.RandomBackground)
		api.GET("/site/friends", h.ListFriends)
		api.GET("/rss", h.RSS)

		api.GET("/articles", h.ListArticles)
		api.GET("/articles/:id", h.GetArticle)
		api.GET("/comment/:id", h.ListComments)
		api.GET("/friends", h.ListFriends)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware(), h.RequireUser())
		{
			auth.POST("/comment/:id", h.PostComment)
			auth.PUT("/comment/:id/:comment", h.EditComment)
			auth.DELETE("/comment/:id/:comment", h.DeleteComment)

			auth.GET("/notifications", h.ListNotifications)
			auth.GET("/notifications/count", h.CountNotifications)
			auth.POST("/notifications/mark_read", h.MarkNotificationsRead)
		}

		writer := api.Group("")
		writer.Use(utils.AuthMiddleware(), h.RequirePermission(model.PermissionWriter))
		{
			writer.POST("/articles", h.CreateArticle)
			writer.PUT("/articles/:id", h.UpdateArticle)
			writer.DELETE("/articles/:id", h.DeleteArticle)

			writer.POST("/friends", h.CreateFriend)
			writer.DELETE("/friends/:id", h.DeleteFriend)

			upload := writer.Group("/upload")
			{
				upload.POST("/new", h.InitUpload)
				upload.POST("/session", h.UploadChunk)
				upload.GET("/session/:id", h.UploadProgress)
				upload.GET("/assets", h.ListAssets)
				upload.DELETE("/assets/:id", h.DeleteAsset)
			}
		}
	}
	return r
}
