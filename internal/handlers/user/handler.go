package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
)

type Handler struct {
	users       *services.UserService
	auth        *services.AuthService
	uploadDir   string
	cookieAge   int
	secure      bool
	frontendURL string
}

type Options struct {
	UploadDir    string
	CookieMaxAge int
	SecureCookie bool
	FrontendURL  string
}

func NewHandler(users *services.UserService, auth *services.AuthService, opts Options) *Handler {
	return &Handler{
		users:       users,
		auth:        auth,
		uploadDir:   opts.UploadDir,
		cookieAge:   opts.CookieMaxAge,
		secure:      opts.SecureCookie,
		frontendURL: opts.FrontendURL,
	}
}

// sendToken émet un JWT, le pose en cookie httpOnly et écrit {success, user, token}.
func (h *Handler) sendToken(c *gin.Context, status int, user *models.User) {
	token, _, err := h.auth.Issue(user)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.setCookie(c, token, h.cookieAge)
	c.JSON(status, gin.H{"success": true, "user": user, "token": token})
}

func (h *Handler) setCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, maxAge, "/", "", h.secure, true)
}
