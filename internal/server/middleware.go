package server

import (
	"strings"

	"github.com/Mayne0963/otw-chi-sub000/internal/reqcontext"
	"github.com/gin-gonic/gin"
)

const userIDHeader = "X-User-Id"

// requireUser resolves the calling member from the gateway-injected header.
// The gateway terminates real authentication; this service only needs the
// identity.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			AbortWithError(c, unauthorizedError())
			return
		}

		ctx := reqcontext.WithUserID(c.Request.Context(), userID)
		ctx = reqcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = reqcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Set("user_id", userID)

		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}
