package middleware

import (
	"net/http"

	"jobmarket/internal/repository"

	"github.com/gin-gonic/gin"
)

// ActiveAccount rejects users whose account was blocked or deleted by an admin.
// Use after AuthRequired.
func ActiveAccount(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		u, err := userRepo.GetByID(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		if !u.CanAct() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "your account is " + u.AccountStatus})
			return
		}
		c.Set(ctxAccountStatus, u.AccountStatus)
		c.Next()
	}
}
