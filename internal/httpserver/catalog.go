package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.CatalogSvc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "results": products})
}

func (h *handlers) getProduct(c *gin.Context) {
	product, err := h.deps.CatalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) listShippingMethods(c *gin.Context) {
	methods, err := h.deps.CatalogSvc.ShippingMethods(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(methods), "results": methods})
}
