package http

import (
	"strings"
	"time"

	"storefront/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const adminEmailKey = "adminEmail"

func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"ip":       c.ClientIP(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= 500 {
			entry.Error("Request completed")
			return
		}
		entry.Info("Request completed")
	}
}

// AdminOnly is the single enforcement point for back office routes.
func AdminOnly(verifier *auth.Verifier, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := verifier.VerifyAdmin(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			log.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).WithError(err).Warn("Admin access denied")
			c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(adminEmailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
