package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/services"
)

type registerForm struct {
	Name     string `form:"name" json:"name" binding:"required,max=30"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=8"`
}

// Register - POST /register, multipart (avatar optionnel) ou JSON
func (h *Handler) Register(c *gin.Context) {
	avatar, err := handlers.SaveUpload(c, h.uploadDir, "avatar")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		handlers.RemoveUploads([]string{avatar})
		_ = c.Error(err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	}, avatar)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login - POST /login
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendToken(c, http.StatusOK, user)
}

// Logout - GET /logout, blackliste le token pour sa durée restante
func (h *Handler) Logout(c *gin.Context) {
	if claims := middleware.CurrentClaims(c); claims != nil {
		if err := h.auth.Revoke(c.Request.Context(), claims); err != nil {
			_ = c.Error(err)
			return
		}
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged Out"})
}

// Me - GET /me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

type passwordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

// UpdatePassword - PUT /password/update. L'ancien token est révoqué et un nouveau est émis.
func (h *Handler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()
	user, err := h.users.UpdatePassword(ctx, middleware.CurrentUser(c).ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if claims := middleware.CurrentClaims(c); claims != nil {
		if err := h.auth.Revoke(ctx, claims); err != nil {
			_ = c.Error(apperrors.Internal(err))
			return
		}
	}
	h.sendToken(c, http.StatusOK, user)
}
