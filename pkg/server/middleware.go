package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julie-berlin/rag-chat-api/pkg/logger"
)

const credentialKey = "credential"

// requestLogger injects the service logger into the request context and
// logs one line per request.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := logger.ContextWithLogger(c.Request.Context(), log)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// requireBearer enforces an Authorization: Bearer <token> header and stores
// the token for handlers. Rejection happens before any provider call.
func requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must be 'Bearer <token>'"})
			return
		}
		log := logger.FromContext(c.Request.Context())
		log.Debug("authenticated request", "credential", credentialPreview(parts[1]))
		c.Set(credentialKey, parts[1])
		c.Next()
	}
}

// credentialPreview returns a short non-reversible prefix for logging.
// Full credential values never reach logs or responses.
func credentialPreview(credential string) string {
	const n = 6
	if len(credential) <= n {
		return "..."
	}
	return credential[:n] + "..."
}
