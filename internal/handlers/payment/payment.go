package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/services"
)

type Handler struct {
	gateway *services.StripeGateway
}

func NewHandler(gateway *services.StripeGateway) *Handler {
	return &Handler{gateway: gateway}
}

type processRequest struct {
	// Amount est dans la plus petite unité de la devise.
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// ProcessPayment - POST /payment/process
func (h *Handler) ProcessPayment(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}
	intent, err := h.gateway.CreateIntent(c.Request.Context(), req.Amount, middleware.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "client_secret": intent.ClientSecret})
}

// SendStripeAPIKey - GET /stripeapikey
func (h *Handler) SendStripeAPIKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stripeApiKey": h.gateway.PublishableKey()})
}
