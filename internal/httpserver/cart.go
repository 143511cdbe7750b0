package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	anonymoussvc "printshop-commerce/internal/service/anonymous"
	cartsvc "printshop-commerce/internal/service/cart"
)

type shippingMethodRequest struct {
	Code string `json:"code"`
}

type offerRequest struct {
	Code string `json:"code"`
}

type mergeRequest struct {
	AnonymousToken string `json:"anonymous_token"`
}

// cartResult writes the snapshot of a successful mutation.
func (h *handlers) cartResult(c *gin.Context, cart *domain.Cart, err error) {
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) getCart(c *gin.Context) {
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.Get(c.Request.Context(), actor)
	h.cartResult(c, cart, err)
}

func (h *handlers) clearCart(c *gin.Context) {
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.Clear(c.Request.Context(), actor)
	h.cartResult(c, cart, err)
}

func (h *handlers) addLine(c *gin.Context) {
	var req pricing.LineRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.AddLine(c.Request.Context(), actor, req)
	h.cartResult(c, cart, err)
}

func (h *handlers) updateLine(c *gin.Context) {
	var req cartsvc.UpdateLineInput
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.UpdateLine(c.Request.Context(), actor, c.Param("id"), req)
	h.cartResult(c, cart, err)
}

func (h *handlers) removeLine(c *gin.Context) {
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.RemoveLine(c.Request.Context(), actor, c.Param("id"))
	h.cartResult(c, cart, err)
}

func (h *handlers) setShippingMethod(c *gin.Context) {
	var req shippingMethodRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.SetShippingMethod(c.Request.Context(), actor, req.Code)
	h.cartResult(c, cart, err)
}

func (h *handlers) applyOffer(c *gin.Context) {
	var req offerRequest
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.ApplyOffer(c.Request.Context(), actor, req.Code)
	h.cartResult(c, cart, err)
}

// removeOffer takes the code from the body or, for clients that cannot send a DELETE
// body, from the code query parameter.
func (h *handlers) removeOffer(c *gin.Context) {
	req := offerRequest{Code: c.Query("code")}
	if req.Code == "" && c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.RemoveOffer(c.Request.Context(), actor, req.Code)
	h.cartResult(c, cart, err)
}

func (h *handlers) setAddresses(c *gin.Context) {
	var req cartsvc.AddressesInput
	if !bindJSON(c, &req) {
		return
	}
	actor, _ := actorFrom(c)
	cart, err := h.deps.CartSvc.SetAddresses(c.Request.Context(), actor, req)
	h.cartResult(c, cart, err)
}

func (h *handlers) mergeCart(c *gin.Context) {
	req := mergeRequest{AnonymousToken: c.GetHeader(anonymousTokenHeader)}
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	token, err := h.liveSession(c.Request.Context(), req.AnonymousToken)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	actor, _ := actorFrom(c)
	userID, _ := actor.Owner.UserID()
	cart, err := h.deps.CartSvc.Merge(c.Request.Context(), token, userID)
	h.cartResult(c, cart, err)
}

// liveSession checks that token names an anonymous session that has not expired.
func (h *handlers) liveSession(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.NewValidationError("anonymous_token", "required")
	}
	owner, err := h.deps.AnonymousSvc.Owner(ctx, token)
	if errors.Is(err, anonymoussvc.ErrInvalidToken) {
		return "", domain.NewValidationError("anonymous_token", "unknown or expired session")
	}
	if err != nil {
		return "", err
	}
	token, _ = owner.SessionToken()
	return token, nil
}
