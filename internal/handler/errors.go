package handler

import (
	"Go_Blog/internal/service"
	"Go_Blog/utils"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors to status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		utils.Fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		utils.Fail(c, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrNotFound):
		utils.Fail(c, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrParentNotFound):
		utils.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrChunkInFlight):
		utils.Fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrSizeExceeded),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrScopeViolation),
		errors.Is(err, service.ErrDepthExceeded):
		utils.Fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrChunkWrite):
		log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusInternalServerError, "chunk write failed, retry the chunk")
	case errors.Is(err, service.ErrReassembly):
		log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusInternalServerError, "file reassembly failed")
	default:
		log.Printf("handler: %s %s: %v", c.Request.Method, c.FullPath(), err)
		utils.Fail(c, http.StatusInternalServerError, "internal error")
	}
}

func badRequest(c *gin.Context, err error) {
	utils.Fail(c, http.StatusBadRequest, "invalid request: "+err.Error())
}
