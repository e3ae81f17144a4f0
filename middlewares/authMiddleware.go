package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates a Bearer token when one is present and puts
// the claims on the request context. Routes decide whether a user is
// required via RequireAuth / RequireAdmin.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"errorKind": "Unauthorized", "detail": "invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := utils.JwtValidate(auth[len(bearer):])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"errorKind": "Unauthorized", "detail": "invalid token"})
			c.Abort()
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), claims.ID)
		ctx = utils.SetUserNameInContext(ctx, claims.Name)
		ctx = utils.SetUserRoleInContext(ctx, claims.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth aborts with 401 when no authenticated user is on the context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"errorKind": "Unauthorized", "detail": "access denied, no token provided"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin aborts with 401 unless the authenticated user is an admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := utils.GetUserRoleFromContext(c.Request.Context())
		if !ok || role != "admin" {
			c.JSON(http.StatusUnauthorized, gin.H{"errorKind": "Unauthorized", "detail": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
