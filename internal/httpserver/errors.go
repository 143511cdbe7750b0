package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	anonymoussvc "printshop-commerce/internal/service/anonymous"
	customersvc "printshop-commerce/internal/service/customer"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeError maps service errors onto status codes. Integrity and concurrency failures
// are logged in full and reported to the client with a generic message.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	if ve, ok := domain.IsValidation(err); ok {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Errors: ve.Fields})
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		abortWithError(c, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrForbidden):
		abortWithError(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, customersvc.ErrInvalidToken), errors.Is(err, anonymoussvc.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, domain.ErrConcurrency):
		logger.Error("request failed: lock timeout", zap.String("path", c.FullPath()), zap.Error(err))
		abortWithError(c, http.StatusServiceUnavailable, "the system is busy, please retry")
	case errors.Is(err, domain.ErrIntegrity):
		logger.Error("request failed: integrity", zap.String("path", c.FullPath()), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "catalog changed while processing the request, please retry")
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "internal error")
	}
}

// bindJSON decodes the body and answers 400 when it is not valid JSON.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
