package order

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ecoshop_back_end/internal/middleware"
)

// GetInvoice - GET /order/:id/invoice, retourne un PDF (ou la page HTML avec ?format=html)
func (h *Handler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	user := middleware.CurrentUser(c)

	if c.Query("format") == "html" {
		html, err := h.invoices.HTML(c.Request.Context(), id, user)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}

	pdf, err := h.invoices.PDF(c.Request.Context(), id, user)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
