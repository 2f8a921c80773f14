package handlers

import (
	"log/slog"
	"net/http"

	"crop-advisor/cache"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the recommendation cache. A nil store means caching
// is disabled.
type CacheHandler struct {
	store cache.Store
	log   *slog.Logger
}

func NewCacheHandler(store cache.Store, log *slog.Logger) *CacheHandler {
	return &CacheHandler{store: store, log: log}
}

// GetCacheStats GET /cache/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "success", "enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"enabled": true,
		"stats":   h.store.Stats(c.Request.Context()),
	})
}

// PurgeCache POST /cache/purge
func (h *CacheHandler) PurgeCache(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, gin.H{"status": "disabled"})
		return
	}
	if err := h.store.Purge(c.Request.Context()); err != nil {
		h.log.Error("cache purge failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to purge cache"})
		return
	}
	h.log.Info("cache purged")
	c.JSON(http.StatusOK, gin.H{"status": "purged"})
}
