package handler

import (
	"Go_Blog/internal/dto"
	"Go_Blog/internal/service"
	"Go_Blog/utils"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipart framing allowance on top of one chunk
const chunkFormOverhead = 64 * 1024

// InitUpload opens an upload session.
func (h *Handler) InitUpload(c *gin.Context) {
	var req dto.UploadInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.uploads.StartSession(c.Request.Context(), currentUser(c).ID, req.FileName, req.FileSize)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, session)
}

// UploadChunk stores one chunk delivered as multipart form data.
func (h *Handler) UploadChunk(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.ChunkSize()+chunkFormOverhead)

	var req dto.UploadChunkRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	file, err := req.File.Open()
	if err != nil {
		badRequest(c, fmt.Errorf("open chunk: %w", err))
		return
	}
	defer file.Close()

	result, err := h.uploads.ReceiveChunk(c.Request.Context(), service.ChunkUpload{
		UserID:      currentUser(c).ID,
		SessionID:   req.SessionID,
		Index:       *req.Chunk,
		FinalName:   req.FinalName,
		TotalChunks: req.TotalChunks,
		Payload:     file,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	resp := dto.UploadChunkResponse{Message: string(result.Status)}
	if result.Asset != nil {
		resp.FinalName = result.Asset.FinalName
		resp.URL = result.Asset.URL
	}
	utils.Success(c, resp)
}

// UploadProgress lists the chunks an open session already holds.
func (h *Handler) UploadProgress(c *gin.Context) {
	var q dto.UploadProgressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	sessionID := c.Param("id")
	if !utils.IsID(sessionID) {
		badRequest(c, fmt.Errorf("invalid session id"))
		return
	}
	progress, err := h.uploads.Progress(c.Request.Context(), currentUser(c).ID, sessionID, q.FinalName)
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, progress)
}

func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.assets.List(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, assets)
}

func (h *Handler) DeleteAsset(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.assets.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	utils.Success(c, gin.H{"success": true})
}

// ServeAsset streams a published upload.
func (h *Handler) ServeAsset(c *gin.Context) {
	rc, info, err := h.assets.Open(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, info.Size, contentType, rc, map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"Content-Disposition":    fmt.Sprintf("inline; filename=%q", utils.SanitizeHeaderFilename(c.Param("name"))),
		"X-Content-Type-Options": "nosniff",
	})
}
