package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/services"
)

// GetAllUsers - GET /admin/users
func (h *Handler) GetAllUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// GetUser - GET /admin/user/:id
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

type createUserRequest struct {
	Name     string `json:"name" binding:"required,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"omitempty,oneof=customer admin"`
}

// CreateUser - POST /admin/user/new, ne connecte pas l'admin en tant que nouvel utilisateur
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, "")
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

type updateRoleRequest struct {
	Name  string `json:"name" binding:"omitempty,max=30"`
	Email string `json:"email" binding:"omitempty,email"`
	Role  string `json:"role" binding:"omitempty,oneof=customer admin"`
}

// UpdateUserRole - PUT /admin/user/:id
func (h *Handler) UpdateUserRole(c *gin.Context) {
	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.users.UpdateRole(c.Request.Context(), c.Param("id"), services.ProfileInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// DeleteUser - DELETE /admin/user/:id
func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User Deleted Successfully"})
}
