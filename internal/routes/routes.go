package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/cache"
	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/handlers/order"
	"ecoshop_back_end/internal/handlers/payment"
	"ecoshop_back_end/internal/handlers/product"
	"ecoshop_back_end/internal/handlers/user"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
)

// Deps is everything the router needs. Payment may be nil when Stripe is not configured.
type Deps struct {
	Logger *zap.Logger
	Auth   *services.AuthService
	Store  *cache.Store

	Health  *handlers.HealthHandler
	Orders  *order.Handler
	Product *product.Handler
	Users   *user.Handler
	Payment *payment.Handler
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger), middleware.Metrics(), middleware.ErrorHandler())
	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", d.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.APIRateLimit(d.Store, middleware.APIMaxRequests, middleware.APIWindow))

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(d.Auth))

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(d.Auth), middleware.AuthorizeRoles(models.RoleAdmin), middleware.AuditAdminActions())

	// Users
	api.POST("/register", middleware.RegisterRateLimit(d.Store), d.Users.Register)
	api.POST("/login", middleware.LoginRateLimit(cache.NewLoginGuard(d.Store)), d.Users.Login)
	api.GET("/auth/:provider", d.Users.BeginAuth)
	api.GET("/auth/:provider/callback", d.Users.CallbackAuth)
	authed.GET("/logout", d.Users.Logout)
	authed.GET("/me", d.Users.Me)
	authed.PUT("/me/update", d.Users.UpdateProfile)
	authed.PUT("/password/update", d.Users.UpdatePassword)
	admin.GET("/users", d.Users.GetAllUsers)
	admin.POST("/user/new", d.Users.CreateUser)
	admin.GET("/user/:id", d.Users.GetUser)
	admin.PUT("/user/:id", d.Users.UpdateUserRole)
	admin.DELETE("/user/:id", d.Users.DeleteUser)

	// Products
	api.GET("/products", d.Product.GetProducts)
	api.GET("/product/:id", d.Product.GetProduct)
	api.GET("/reviews", d.Product.GetReviews)
	authed.PUT("/review", d.Product.CreateReview)
	authed.DELETE("/reviews", d.Product.DeleteReview)
	admin.GET("/products", d.Product.GetAdminProducts)
	admin.POST("/product/new", d.Product.CreateProduct)
	admin.PUT("/product/:id", d.Product.UpdateProduct)
	admin.DELETE("/product/:id", d.Product.DeleteProduct)
	admin.PUT("/product/:id/stock", d.Product.UpdateStock)
	admin.GET("/product/:id/stock/movements", d.Product.GetStockMovements)

	// Orders
	authed.POST("/order/new", d.Orders.NewOrder)
	authed.GET("/order/:id", d.Orders.GetOrder)
	authed.GET("/order/:id/invoice", d.Orders.GetInvoice)
	authed.PUT("/order/:id/cancel", d.Orders.CancelOrder)
	authed.GET("/orders/me", d.Orders.MyOrders)
	authed.GET("/orders/me/live", d.Orders.LiveOrders)
	admin.GET("/orders", d.Orders.GetAllOrders)
	admin.PUT("/order/:id", d.Orders.UpdateOrderStatus)
	admin.DELETE("/order/:id", d.Orders.DeleteOrder)

	// Payments
	if d.Payment != nil {
		authed.POST("/payment/process", d.Payment.ProcessPayment)
		authed.GET("/stripeapikey", d.Payment.SendStripeAPIKey)
	}
}
