package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"siteforge/api/internal/config"
	"siteforge/api/internal/models"
	"siteforge/api/internal/security"
)

// Identity is the verified caller attached to the request context. Resource
// handlers must take the organization id from here and never from request
// payloads; that is what keeps tenants apart.
type Identity struct {
	UserID         string
	OrganizationID string
	Role           models.UserRole
}

const identityKey = "identity"

// Auth verifies the Bearer access token and attaches the caller's Identity.
// Requests without a valid, unexpired access token never reach resource
// logic.
func Auth(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := security.VerifyToken(tokenStr, cfg.Security.JWTAccessSecret, security.TokenKindAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set(identityKey, Identity{
			UserID:         claims.UserID,
			OrganizationID: claims.OrganizationID,
			Role:           models.UserRole(claims.Role),
		})

		c.Next()
	}
}

// IdentityFrom returns the Identity placed by Auth.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	val, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := val.(Identity)
	return identity, ok
}

// RequireRole gates a route group on the caller's role.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := roleSet[identity.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
