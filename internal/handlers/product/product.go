package product

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/handlers"
	"ecoshop_back_end/internal/middleware"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/services"
)

type Handler struct {
	products  *services.ProductService
	reviews   *services.ReviewService
	inventory *services.InventoryService
	uploadDir string
}

func NewHandler(products *services.ProductService, reviews *services.ReviewService, inventory *services.InventoryService, uploadDir string) *Handler {
	return &Handler{products: products, reviews: reviews, inventory: inventory, uploadDir: uploadDir}
}

// productForm lie les formulaires multipart et les corps JSON. Les anciens clients
// envoient le stock en "Stock" : le JSON ignore la casse, les formulaires non.
type productForm struct {
	Name        *string  `form:"name" json:"name"`
	Description *string  `form:"description" json:"description"`
	Price       *float64 `form:"price" json:"price" binding:"omitempty,gte=0"`
	Category    *string  `form:"category" json:"category"`
	Stock       *int     `form:"stock" json:"stock" binding:"omitempty,gte=0"`
	StockAlias  *int     `form:"Stock" json:"-" binding:"omitempty,gte=0"`
}

func (f productForm) input() services.ProductInput {
	stock := f.Stock
	if stock == nil {
		stock = f.StockAlias
	}
	return services.ProductInput{
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    f.Category,
		Stock:       stock,
	}
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.Validation("Invalid value for " + key)
	}
	return &v, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperrors.Validation("Invalid value for " + key)
	}
	return v, nil
}

// GetProducts - GET /products?keyword=&category=&price[gte]=&price[lte]=&ratings[gte]=&page=&limit=
func (h *Handler) GetProducts(c *gin.Context) {
	q := services.ProductQuery{
		ProductFilter: models.ProductFilter{
			Keyword:  c.Query("keyword"),
			Category: c.Query("category"),
		},
	}
	var err error
	if q.PriceGTE, err = queryFloat(c, "price[gte]"); err != nil {
		_ = c.Error(err)
		return
	}
	if q.PriceLTE, err = queryFloat(c, "price[lte]"); err != nil {
		_ = c.Error(err)
		return
	}
	if q.RatingsGTE, err = queryFloat(c, "ratings[gte]"); err != nil {
		_ = c.Error(err)
		return
	}
	if q.Page, err = queryInt(c, "page"); err != nil {
		_ = c.Error(err)
		return
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		_ = c.Error(err)
		return
	}

	page, err := h.products.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"products":              page.Products,
		"productsCount":         page.ProductsCount,
		"resultPerPage":         page.ResultPerPage,
		"filteredProductsCount": page.FilteredProductsCount,
	})
}

func (h *Handler) GetAdminProducts(c *gin.Context) {
	products, err := h.products.AdminList(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

// CreateProduct - POST /admin/product/new (multipart, jusqu'à 5 "images")
func (h *Handler) CreateProduct(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(err)
		return
	}
	paths, err := handlers.SaveUploads(c, h.uploadDir, "images", services.MaxProductImages)
	if err != nil {
		_ = c.Error(err)
		return
	}

	p, err := h.products.Create(c.Request.Context(), middleware.CurrentUser(c), form.input(), paths)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "product": p})
}

// UpdateProduct - PUT /admin/product/:id, les nouvelles images sont ajoutées à la suite
func (h *Handler) UpdateProduct(c *gin.Context) {
	var form productForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(err)
		return
	}
	paths, err := handlers.SaveUploads(c, h.uploadDir, "images", services.MaxProductImages)
	if err != nil {
		_ = c.Error(err)
		return
	}

	p, err := h.products.Update(c.Request.Context(), c.Param("id"), form.input(), paths)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": p})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}
