// README: Shared handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/matching"
	"dray/internal/modules/order"
	"dray/internal/modules/partner"
	"dray/internal/modules/pricing"
	"dray/internal/modules/routing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body so store failures never leak SQL.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, partner.ErrInvalidInput),
		errors.Is(err, matching.ErrInvalidInput),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, routing.ErrInvalidInput):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, partner.ErrNotFound),
		errors.Is(err, routing.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, partner.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
