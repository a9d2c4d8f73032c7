package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nhle/devdash/internal/observability"
)

// UserHeader carries the acting user's ID. Authentication happens in
// front of this service.
const UserHeader = "X-User-ID"

const userIDKey = "user_id"

// actingUser stores the X-User-ID header in the context. Anonymous
// requests get an empty user ID.
func actingUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userIDKey, strings.TrimSpace(c.GetHeader(UserHeader)))
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requireUser aborts with 401 when the request has no acting user.
func requireUser(c *gin.Context) (string, bool) {
	id := userID(c)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing " + UserHeader + " header",
		})
		return "", false
	}
	return id, true
}

// recordMetrics counts requests by route template, not raw path.
func recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observability.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"user_id", userID(c),
		)
	}
}
