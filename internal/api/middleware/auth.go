package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agrosense/plant-health/internal/access"
	"github.com/agrosense/plant-health/internal/api/response"
	"github.com/agrosense/plant-health/internal/config"
	"github.com/agrosense/plant-health/pkg/auth"
)

// Context keys set by AuthMiddleware.
const (
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyFullName = "full_name"
	KeyRole     = "role"
	KeyIsStaff  = "is_staff"
)

// AuthMiddleware validates JWT tokens from the Authorization header
func AuthMiddleware(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Unauthorized(c, "invalid authorization header format")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, bearerPrefix)

		claims, err := auth.ValidateToken(token, cfg.Secret)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyFullName, claims.FullName)
		c.Set(KeyRole, claims.Role)
		c.Set(KeyIsStaff, claims.IsStaff)

		c.Next()
	}
}

// Principal returns the authenticated caller. ok is false on routes without
// AuthMiddleware.
func Principal(c *gin.Context) (access.Identity, bool) {
	id, ok := c.Get(KeyUserID)
	if !ok {
		return access.Identity{}, false
	}
	userID, ok := id.(int64)
	if !ok || userID <= 0 {
		return access.Identity{}, false
	}
	return access.Identity{
		ID:       userID,
		Username: c.GetString(KeyUsername),
		FullName: c.GetString(KeyFullName),
		Role:     c.GetString(KeyRole),
		Staff:    c.GetBool(KeyIsStaff),
	}, true
}
