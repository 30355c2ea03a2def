package middleware

import (
	"net/http"

	"lokapasar-be/internal/auth"
	"lokapasar-be/internal/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the caller's identity from the access token
// and stores it in the request context. Anonymous requests pass
// through; authorization is enforced per-route.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := auth.ExtractAccessToken(c.Request)
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := auth.ParseToken(tokenStr)
		if err != nil {
			c.Next()
			return
		}

		ctx := utils.SetUserContext(c.Request.Context(), claims.UserID, claims.Email, claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireUser aborts anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIDFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts requests whose identity is not an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.IsAdmin(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
