package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutsvc "printshop-commerce/internal/service/checkout"
)

// checkout converts the caller's cart. An empty body checks out with the defaults.
func (h *handlers) checkout(c *gin.Context) {
	var req checkoutsvc.Input
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	actor, _ := actorFrom(c)
	res, err := h.deps.DocumentSvc.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) createEstimate(c *gin.Context) {
	var req checkoutsvc.EstimateInput
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	res, err := h.deps.DocumentSvc.CreateEstimate(c.Request.Context(), actor, req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handlers) getDocument(c *gin.Context) {
	actor, _ := actorFrom(c)
	doc, err := h.deps.DocumentSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *handlers) transition(c *gin.Context) {
	var req checkoutsvc.TransitionInput
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	doc, err := h.deps.DocumentSvc.Transition(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
