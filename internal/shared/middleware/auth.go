package middleware

import (
	"context"
	"strings"

	orgModel "profile-server/internal/domains/organization/model"
	"profile-server/internal/shared"
	"profile-server/internal/shared/response"
	"profile-server/pkg/jwt"
	"profile-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===================================
// INTERFACES
// ===================================

// APIKeyResolver looks up an enabled organization key.
// Implemented by the organization service.
type APIKeyResolver interface {
	ResolveAPIKey(ctx context.Context, raw string) (*orgModel.APIKey, error)
}

// TokenValidator checks a user access token
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// ===================================
// CONSTANTS
// ===================================

const (
	HeaderAPIKey        = "x-api-key"
	HeaderAuthorization = "Authorization"

	ContextKeyActor  = "actor"
	ContextKeyUserID = "userID"
)

// ===================================
// AUTH MIDDLEWARE
// ===================================

// Authenticate resolves the caller of every request into a shared.Actor.
//
// Flow:
// 1. x-api-key header → organization key scope
// 2. Bearer token → user scope
// 3. Nothing → public scope
//
// A credential that is present but invalid is rejected with 401, it never
// falls back to public.
func Authenticate(keys APIKeyResolver, tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := shared.PublicActor()

		if raw := strings.TrimSpace(c.GetHeader(HeaderAPIKey)); raw != "" {
			key, err := keys.ResolveAPIKey(c.Request.Context(), raw)
			if err != nil {
				response.Unauthorized(c, "Invalid API key")
				c.Abort()
				return
			}
			actor = shared.APIKeyActor(key.ID, key.OrganizationID, key.ReadPermission, key.WritePermission)
		} else if header := c.GetHeader(HeaderAuthorization); header != "" {
			userID, ok := bearerUser(header, tokens)
			if !ok {
				response.Unauthorized(c, "Invalid token")
				c.Abort()
				return
			}
			actor = shared.UserActor(userID)
			c.Set(ContextKeyUserID, userID)
		}

		c.Set(ContextKeyActor, actor)
		c.Next()
	}
}

// bearerUser extracts the user id from "Bearer <token>"
func bearerUser(header string, tokens TokenValidator) (uuid.UUID, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return uuid.Nil, false
	}

	claims, err := tokens.ValidateAccessToken(parts[1])
	if err != nil {
		logger.Debug("rejected access token: " + err.Error())
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// ===================================
// CONTEXT HELPERS FOR HANDLERS
// ===================================

// CurrentActor returns the caller set by Authenticate, public if unset
func CurrentActor(c *gin.Context) shared.Actor {
	value, exists := c.Get(ContextKeyActor)
	if !exists {
		return shared.PublicActor()
	}
	actor, ok := value.(shared.Actor)
	if !ok {
		return shared.PublicActor()
	}
	return actor
}
