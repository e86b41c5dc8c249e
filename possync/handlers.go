package possync

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/utils"
)

// BaseURLFunc resolves the URL product images are served under for a request.
type BaseURLFunc func(c *gin.Context) string

func PullHandler(svc *Service, baseURL BaseURLFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.Pull(c.Request.Context(), baseURL(c))
		if err != nil {
			config.LogError(config.GetLogger(), "possync", "PullHandler", "pull snapshot", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func PushHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expected an array of operations"})
			return
		}
		ops, err := ParseOperations(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Expected an array of operations"})
			return
		}

		results, err := svc.Push(c.Request.Context(), ops)
		if err != nil {
			correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			config.LogError(config.GetLogger(), "possync", "PushHandler", "push batch", correlationId, err)
			c.JSON(http.StatusInternalServerError, PushResponse{
				Success: false,
				Error:   "Sync failed",
				Results: results,
			})
			return
		}
		c.JSON(http.StatusOK, PushResponse{Success: true, Results: results})
	}
}

func HistoryHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := DefaultHistoryLimit
		if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		runs, err := svc.History(c.Request.Context(), limit)
		if err != nil {
			config.LogError(config.GetLogger(), "possync", "HistoryHandler", "read sync history", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, HistoryResponse{Items: runs})
	}
}
