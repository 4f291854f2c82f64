// README: Tenant extraction middleware; every API call is tenant-scoped.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const TenantKey = "tenantID"

// Tenant requires the X-Tenant-ID header on every API route and stashes it
// in the gin context. Upstream auth is expected to have verified the
// caller's right to act for the tenant.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-Tenant-ID header"})
			return
		}
		c.Set(TenantKey, tenantID)
		c.Next()
	}
}

// TenantID reads the tenant stashed by Tenant().
func TenantID(c *gin.Context) string {
	return c.GetString(TenantKey)
}
