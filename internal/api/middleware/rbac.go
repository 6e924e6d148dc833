package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/api/response"
)

// RequireRole admits callers whose role is one of allowedRoles. Staff
// accounts are always admitted.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			response.Forbidden(c, "user role not found in context")
			c.Abort()
			return
		}
		if p.IsStaff() {
			c.Next()
			return
		}

		for _, allowedRole := range allowedRoles {
			if p.RoleName() == allowedRole {
				c.Next()
				return
			}
		}

		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

// RequireAdmin admits callers the policy treats as administrators.
func RequireAdmin(policy access.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok || !policy.IsAdmin(p) {
			response.Forbidden(c, "administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
