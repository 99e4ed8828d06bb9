package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lanvault/vault"
)

// statusFor maps the vault error taxonomy onto HTTP statuses. Anything not
// in the taxonomy is a system error and maps to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vault.ErrTraversal):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vault.ErrInvalidName),
		errors.Is(err, vault.ErrNotADirectory),
		errors.Is(err, vault.ErrNotAFile):
		return http.StatusBadRequest
	case errors.Is(err, vault.ErrExists),
		errors.Is(err, vault.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, vault.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
