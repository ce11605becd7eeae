package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/logging"
)

// withProvider recopie le paramètre :provider dans la query, là où gothic le cherche.
func withProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", c.Param("provider"))
	c.Request.URL.RawQuery = q.Encode()
}

// BeginAuth - GET /auth/:provider
func (h *Handler) BeginAuth(c *gin.Context) {
	withProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth - GET /auth/:provider/callback. Connecte l'utilisateur et le renvoie vers la boutique.
func (h *Handler) CallbackAuth(c *gin.Context) {
	withProvider(c)
	provider := c.Param("provider")
	logger := logging.FromContext(c.Request.Context())

	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		logger.Warn("oauth callback failed", zap.String("provider", provider), zap.Error(err))
		c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/login?error=oauth")
		return
	}

	name := gu.Name
	if name == "" {
		name = gu.NickName
	}
	user, err := h.users.OAuthLogin(c.Request.Context(), provider, gu.Email, name, gu.AvatarURL)
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, _, err := h.auth.Issue(user)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setCookie(c, token, h.cookieAge)
	logger.Info("oauth login", zap.String("provider", provider), zap.String("user_id", user.ID))
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL)
}
