package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SiteInfo(c *gin.Context) {
	backgrounds := h.cfg.SiteBackgrounds
	if backgrounds == nil {
		backgrounds = []string{}
	}
	utils.Success(c, dto.SiteInfo{
		Title:       h.cfg.SiteTitle,
		Description: h.cfg.SiteDescription,
		URL:         h.cfg.SiteURL,
		Author:      h.cfg.SiteAuthor,
		Backgrounds: backgrounds,
		ClientID:    h.auth.ClientID(),
	})
}

// RandomBackground picks one of the configured background images.
func (h *Handler) RandomBackground(c *gin.Context) {
	url, ok := utils.PickRandom(h.cfg.SiteBackgrounds)
	if !ok {
		utils.Fail(c, http.StatusNotFound, "no backgrounds configured")
		return
	}
	utils.Success(c, gin.H{"url": url})
}

func (h *Handler) RSS(c *gin.Context) {
	doc, err := h.feed.RSS(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", doc)
}

func (h *Handler) Sitemap(c *gin.Context) {
	doc, err := h.feed.Sitemap(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", doc)
}

func (h *Handler) Robots(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", h.feed.Robots())
}

func (h *Handler) Health(c *gin.Context) {
	utils.Success(c, dto.HealthResponse{Status: "ok", Time: time.Now().UTC()})
}
