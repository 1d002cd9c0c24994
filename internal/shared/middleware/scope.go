package middleware

import (
	"net/http"

	"profile-server/internal/shared"
	"profile-server/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RequireUser only lets requests with a user token through.
// Organization management is not available to API keys.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).Scope != shared.ScopeUser {
			response.ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Access denied: user token required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCredentials rejects public callers
func RequireCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).IsPublic() {
			response.Unauthorized(c, "Not Authorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
