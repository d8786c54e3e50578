package middleware

import (
	"net/http"
	"strings"

	"jobmarket/config"
	"jobmarket/internal/auth"
	"jobmarket/internal/domain"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthRequired and ActiveAccount.
const (
	ctxUserID        = "user_id"
	ctxRole          = "role"
	ctxClaims        = "claims"
	ctxAccountStatus = "account_status"
)

// AuthRequired validates the bearer access token and stores the caller's id
// and role on the context. Refresh tokens are rejected.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed bearer token"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil || claims.UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole lets through callers whose role is one of allowed.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "this action requires " + roleLabel(allowed)})
	}
}

func roleLabel(roles []string) string {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		switch r {
		case domain.RoleServiceProvider:
			names = append(names, "a service provider account")
		case domain.RoleUser:
			names = append(names, "a customer account")
		case domain.RoleAdmin, domain.RoleSuperAdmin:
			names = append(names, "an admin account")
		default:
			names = append(names, strings.ToLower(r))
		}
	}
	return strings.Join(names, " or ")
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint {
	id, _ := c.Get(ctxUserID)
	v, _ := id.(uint)
	return v
}

// GetRole returns the role carried by the caller's access token.
func GetRole(c *gin.Context) string {
	role, _ := c.Get(ctxRole)
	r, _ := role.(string)
	return r
}
