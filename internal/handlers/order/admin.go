package order

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/models"
)

// GetAllOrders - GET /admin/orders
func (h *Handler) GetAllOrders(c *gin.Context) {
	orders, total, err := h.orders.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"totalAmount": total,
		"orders":      orders,
	})
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateOrderStatus - PUT /admin/order/:id
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// DeleteOrder - DELETE /admin/order/:id
func (h *Handler) DeleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
