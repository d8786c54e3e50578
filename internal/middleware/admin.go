package middleware

import (
	"net/http"

	"jobmarket/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated user is an ADMIN or SUPER_ADMIN.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r := GetRole(c); r != domain.RoleAdmin && r != domain.RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// SuperAdminRequired guards management of admin accounts.
func SuperAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin access required"})
			return
		}
		c.Next()
	}
}
