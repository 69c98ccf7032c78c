package rest

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/guessgame/internal/common"
	"github.com/dmitrijs2005/guessgame/internal/logging"
	"github.com/gin-gonic/gin"
)

const usernameKey = "username"

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token's username in the gin context.
func AuthMiddleware(v TokenVerifier, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		token, ok := strings.CutPrefix(header, common.BearerPrefix)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		username, err := v.Verify(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			logger.Debug(c.Request.Context(), "rejected token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		}
		if u, ok := c.Get(usernameKey); ok {
			args = append(args, "username", u)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn(c.Request.Context(), "request", args...)
			return
		}
		logger.Info(c.Request.Context(), "request", args...)
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(usernameKey)
}
