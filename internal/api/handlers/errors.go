package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
)

// respondError maps store and engine errors onto status codes. notFound is the
// message used for repository.ErrNotFound.
func respondError(c *gin.Context, logger *slog.Logger, err error, notFound string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
	case errors.Is(err, repository.ErrLoadClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Load is no longer open"})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	default:
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
