package middleware

import (
	"net/http"
	"strings"

	"pos-service/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ActorContextKey = "actor"

// AuthMiddleware reads the tenant and user identity injected by the API
// gateway and stores it as a models.Actor.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := identity(c, "X-Tenant-ID", "tenant_id")
		userID := identity(c, "X-User-ID", "user_id")
		role := identity(c, "X-User-Role", "user_role")

		tenant, tenantErr := uuid.Parse(tenantID)
		user, userErr := uuid.Parse(userID)
		if tenantErr != nil || userErr != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		actor := models.Actor{TenantID: tenant, UserID: user, Role: models.Role(strings.ToUpper(role))}
		if !actor.Role.Valid() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Unknown role"})
			c.Abort()
			return
		}

		c.Set(ActorContextKey, actor)
		c.Set("userID", userID)
		c.Set("role", string(actor.Role))
		c.Next()
	}
}

// identity prefers the header and falls back to the gateway cookie.
func identity(c *gin.Context, header, cookie string) string {
	if v := strings.TrimSpace(c.GetHeader(header)); v != "" {
		return v
	}
	if v, err := c.Cookie(cookie); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// ActorFrom returns the actor set by AuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	if val, ok := c.Get(ActorContextKey); ok {
		if actor, ok := val.(models.Actor); ok {
			return actor, true
		}
	}
	return models.Actor{}, false
}

// ManagerOnly restricts access to OWNER, ADMIN and MANAGER.
func ManagerOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.Role.IsManagerOrAbove() {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "Manager role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
