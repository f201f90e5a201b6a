package httpapi

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirk1998/recipe-box/internal/ratelimit"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

// ContextUserIDKey is the gin context key carrying the authenticated user id
const ContextUserIDKey = "auth.user_id"

// RequestIDHeader is echoed on every response for log correlation
const RequestIDHeader = "X-Request-ID"

// RequireLogin returns a middleware that gates a route group on an
// authenticated session. The bound user is re-resolved on every call, so a
// session whose user has since disappeared falls back to anonymous.
func (h *Handlers) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(sessionKeyUserID).(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}

		if _, err := h.auth.CheckSession(c.Request.Context(), userID); err != nil {
			if err == errors.ErrNotLoggedIn {
				session.Clear()
				_ = session.Save()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// RequestID assigns a request id to every request and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RateLimitByIP rejects requests over the per-client budget with 429
func RateLimitByIP(limiter *ratelimit.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow("ip:" + c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
