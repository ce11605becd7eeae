package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/logging"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
	"ecoshop_back_end/internal/utils"
)

// TokenCookie est le cookie qui porte le token d'accès.
const TokenCookie = "token"

const (
	ctxUser   = "user"
	ctxClaims = "claims"
)

// tokenFromRequest préfère le cookie, sinon le header Bearer.
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// AuthRequired rejette les requêtes sans token valide et non révoqué d'un utilisateur existant.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := auth.Authenticate(c.Request.Context(), tokenFromRequest(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxClaims, claims)
		c.Set("user_id", user.ID)
		c.Set("role", user.Role)

		logger := logging.FromContext(c.Request.Context()).With(zap.String("user_id", user.ID))
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), logger))
		c.Next()
	}
}

// CurrentUser retourne l'utilisateur posé par AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func CurrentClaims(c *gin.Context) *utils.Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*utils.Claims); ok {
			return claims
		}
	}
	return nil
}
