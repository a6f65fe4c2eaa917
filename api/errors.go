package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-lending/internal/logger"
	"library-lending/library"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps the library error classes onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, library.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrRuleViolation):
		return http.StatusConflict
	case errors.Is(err, library.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed", "error", err)
		c.AbortWithStatusJSON(status, ErrorResponse{Error: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
