// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wander/internal/modules/generation"
	"wander/internal/modules/quota"
)

// QuotaConsumer deducts one generation from a user's monthly allowance.
// *quota.Service satisfies it; handlers take the interface so the quota path
// is testable without a database.
type QuotaConsumer interface {
	Consume(ctx context.Context, userID string) error
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeGenerationError(c *gin.Context, err error) {
	switch err {
	case generation.ErrJobNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case generation.ErrJobNotRunning:
		writeError(c, http.StatusConflict, err.Error())
	case quota.ErrQuotaExceeded:
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
