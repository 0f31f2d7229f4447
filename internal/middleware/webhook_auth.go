package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// WebhookSecretHeader carries the shared secret configured for the inbound mail provider.
	WebhookSecretHeader = "X-Webhook-Secret"
	// IngestUserHeader names the user an inbound email belongs to.
	IngestUserHeader = "X-Ingest-User"
)

// WebhookAuth authenticates inbound email webhooks. When secret is empty the
// shared secret check is skipped (local development). The owning user comes
// from the X-Ingest-User header, or the local part of the recipient field.
func WebhookAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		if secret != "" {
			provided := c.GetHeader(WebhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				logger.Warn("Webhook secret mismatch")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
				return
			}
		}

		userID := strings.TrimSpace(c.GetHeader(IngestUserHeader))
		if userID == "" {
			userID = recipientUser(c.PostForm("recipient"))
		}
		if userID == "" {
			logger.Warn("Webhook request without a target user")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Target user could not be determined"})
			return
		}

		c.Set(string(userIDKey), userID)
		c.Set("authMethod", "webhook")
		ctx := WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(WithLogger(ctx, logger.With(slog.String("user_id", userID))))
		c.Next()
	}
}

// recipientUser turns "user-id+tag@in.example.com" into "user-id".
func recipientUser(recipient string) string {
	recipient = strings.TrimSpace(recipient)
	local, _, found := strings.Cut(recipient, "@")
	if !found {
		return ""
	}
	local, _, _ = strings.Cut(local, "+")
	return strings.TrimSpace(local)
}
