package middleware

import (
	"fmt"
	"slices"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/apperrors"
)

// AuthorizeRoles ne laisse passer que les utilisateurs ayant un des rôles. S'exécute après AuthRequired.
func AuthorizeRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			_ = c.Error(apperrors.Unauthorized("Please Login to access this resource"))
			c.Abort()
			return
		}
		if !slices.Contains(roles, user.Role) {
			_ = c.Error(apperrors.Forbidden(fmt.Sprintf("Role: %s is not allowed to access this resource", user.Role)))
			c.Abort()
			return
		}
		c.Next()
	}
}
