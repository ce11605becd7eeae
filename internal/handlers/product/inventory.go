package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
)

// stockRequest : "restock" ajoute la quantité, "adjustment" applique une quantité signée, "set" remplace le stock.
type stockRequest struct {
	Quantity *int   `json:"quantity" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=restock adjustment set"`
}

// UpdateStock - PUT /admin/product/:id/stock
func (h *Handler) UpdateStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	var (
		change *services.StockChange
		err    error
	)
	switch req.Type {
	case "restock":
		if *req.Quantity <= 0 {
			_ = c.Error(apperrors.Validation("Restock quantity must be positive"))
			return
		}
		change, err = h.inventory.Adjust(ctx, id, *req.Quantity, models.MovementRestock, "")
	case "adjustment":
		change, err = h.inventory.Adjust(ctx, id, *req.Quantity, models.MovementAdjustment, "")
	case "set":
		change, err = h.inventory.Set(ctx, id, *req.Quantity, models.MovementAdjustment)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stock": change})
}

// GetStockMovements - GET /admin/product/:id/stock/movements?limit=
func (h *Handler) GetStockMovements(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		_ = c.Error(err)
		return
	}
	movements, err := h.inventory.Movements(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "movements": movements})
}
