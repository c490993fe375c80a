package middleware

import (
	"net/http"
	"strings"

	"thekua-api/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// AuthMiddleware checks if the request carries a valid JWT.
// Browsers cannot set headers on websocket upgrades, so a ?token= query
// parameter is accepted as well.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Format: "Bearer <token>"
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				abort(c, http.StatusUnauthorized, "Authorization header must start with Bearer")
				return
			}
		}
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Role(c) != allowedRole {
			abort(c, http.StatusForbidden, "You do not have permission to access this resource")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func Role(c *gin.Context) string {
	return c.GetString(ctxRole)
}
