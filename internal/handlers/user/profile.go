package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/services"
)

type profileForm struct {
	Name  string `form:"name" json:"name" binding:"omitempty,max=30"`
	Email string `form:"email" json:"email" binding:"omitempty,email"`
}

// UpdateProfile - PUT /me/update, nom, email et éventuellement un nouvel avatar
func (h *Handler) UpdateProfile(c *gin.Context) {
	avatar, err := handlers.SaveUpload(c, h.uploadDir, "avatar")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var form profileForm
	if err := c.ShouldBind(&form); err != nil {
		handlers.RemoveUploads([]string{avatar})
		_ = c.Error(err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c).ID, services.ProfileInput{
		Name:  form.Name,
		Email: form.Email,
	}, avatar)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
