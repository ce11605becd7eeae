package product

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/middleware"
)

type reviewRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

// CreateReview - PUT /review, crée ou remplace l'avis de l'appelant
func (h *Handler) CreateReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	p, err := h.reviews.Upsert(c.Request.Context(), req.ProductID, middleware.CurrentUser(c), req.Rating, req.Comment)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"ratings":      p.Ratings,
		"numOfReviews": p.NumOfReviews,
	})
}

// GetReviews - GET /reviews?id=<productId>
func (h *Handler) GetReviews(c *gin.Context) {
	productID := c.Query("id")
	if productID == "" {
		_ = c.Error(apperrors.Validation("Product id is required"))
		return
	}
	reviews, err := h.reviews.List(c.Request.Context(), productID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews})
}

// DeleteReview - DELETE /reviews?productId=&id=
func (h *Handler) DeleteReview(c *gin.Context) {
	productID, reviewID := c.Query("productId"), c.Query("id")
	if productID == "" || reviewID == "" {
		_ = c.Error(apperrors.Validation("productId and id are required"))
		return
	}
	p, err := h.reviews.Delete(c.Request.Context(), productID, reviewID, middleware.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"ratings":      p.Ratings,
		"numOfReviews": p.NumOfReviews,
	})
}
