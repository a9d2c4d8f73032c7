package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nhle/devdash/internal/community"
	"github.com/nhle/devdash/internal/generate"
	"github.com/nhle/devdash/internal/issues"
	"github.com/nhle/devdash/internal/store"
)

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var verr *community.ValidationError
	var upstream *generate.UpstreamError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		if upstream.Timeout() {
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{
			"error":        "content generation failed, try again",
			"content_type": upstream.ContentType,
		})
	case errors.Is(err, issues.ErrNoRepo):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case issues.IsAuthError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}
