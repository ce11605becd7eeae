package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/logging"
)

// AuditAdminActions logue chaque requête admin qui modifie l'état, avec son résultat.
func AuditAdminActions() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		c.Next()

		fields := []zap.Field{
			zap.String("action", c.Request.Method),
			zap.String("resource", c.FullPath()),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", c.Writer.Status()),
			zap.Bool("success", len(c.Errors) == 0 && c.Writer.Status() < http.StatusBadRequest),
		}
		if user := CurrentUser(c); user != nil {
			fields = append(fields, zap.String("admin_id", user.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		logging.FromContext(c.Request.Context()).Info("admin action", fields...)
	}
}
