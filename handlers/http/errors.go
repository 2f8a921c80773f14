package httpHandler

import (
	"errors"
	"log/slog"
	"net/http"

	"crop-advisor/usecases"

	"github.com/gin-gonic/gin"
)

// respondError maps use case errors onto status codes and JSON bodies.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	var (
		ve *usecases.ValidationError
		ce *usecases.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, gin.H{"error": ce.Error(), "field": ce.Field})
	case errors.Is(err, usecases.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, usecases.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, usecases.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
