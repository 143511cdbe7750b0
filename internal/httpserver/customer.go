package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	customersvc "printshop-commerce/internal/service/customer"
)

func (h *handlers) issueAnonymous(c *gin.Context) {
	session, err := h.deps.AnonymousSvc.Issue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *handlers) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.deps.CustomerSvc.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// login also accepts the anonymous token from the header so clients need not copy it
// into the body.
func (h *handlers) login(c *gin.Context) {
	var req customersvc.LoginInput
	if !bindJSON(c, &req) {
		return
	}
	if req.AnonymousToken == "" {
		if actor, ok := actorFrom(c); ok {
			if token, anon := actor.Owner.SessionToken(); anon {
				req.AnonymousToken = token
			}
		}
	} else if _, err := h.liveSession(c.Request.Context(), req.AnonymousToken); err != nil {
		h.logger.Info("login ignores stale anonymous token", zap.Error(err))
		req.AnonymousToken = ""
	}
	res, err := h.deps.CustomerSvc.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) me(c *gin.Context) {
	actor, _ := actorFrom(c)
	id, _ := actor.Owner.UserID()
	customer, err := h.deps.CustomerSvc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}
