package delivery

import (
	"net/http"
	"strings"

	"notification-delivery/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// CallerKey is the gin context key holding the authenticated token subject
const CallerKey = "caller"

func AuthMiddleware(tokens usecase.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		caller, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(CallerKey, caller)
		c.Next()
	}
}
