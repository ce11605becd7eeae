package order

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
)

type Handler struct {
	orders   *services.OrderService
	invoices *services.InvoiceService
	events   *services.EventBus
	upgrader websocket.Upgrader
}

func NewHandler(orders *services.OrderService, invoices *services.InvoiceService, events *services.EventBus, allowedOrigin string) *Handler {
	return &Handler{
		orders:   orders,
		invoices: invoices,
		events:   events,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "" || origin == allowedOrigin
			},
		},
	}
}

type orderRequest struct {
	ShippingInfo  models.ShippingInfo `json:"shippingInfo" binding:"required"`
	OrderItems    []models.OrderItem  `json:"orderItems" binding:"required,min=1,dive"`
	PaymentInfo   models.PaymentInfo  `json:"paymentInfo" binding:"required"`
	ItemsPrice    float64             `json:"itemsPrice" binding:"gte=0"`
	TaxPrice      float64             `json:"taxPrice" binding:"gte=0"`
	ShippingPrice float64             `json:"shippingPrice" binding:"gte=0"`
	TotalPrice    float64             `json:"totalPrice" binding:"gte=0"`
}

// NewOrder - POST /order/new
func (h *Handler) NewOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), middleware.CurrentUser(c).ID, services.OrderInput{
		ShippingInfo:  req.ShippingInfo,
		OrderItems:    req.OrderItems,
		PaymentInfo:   req.PaymentInfo,
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// GetOrder - GET /order/:id, propriétaire ou admin
func (h *Handler) GetOrder(c *gin.Context) {
	view, err := h.orders.Get(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": view})
}

func (h *Handler) MyOrders(c *gin.Context) {
	orders, err := h.orders.ListMine(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// CancelOrder - PUT /order/:id/cancel, propriétaire uniquement, tant que Processing
func (h *Handler) CancelOrder(c *gin.Context) {
	order, err := h.orders.Cancel(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order cancelled successfully",
		"order":   order,
	})
}
