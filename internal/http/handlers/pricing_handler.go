// README: Dynamic pricing handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/pricing"
	"dray/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type dynamicPriceReq struct {
	BasePrice         int64  `json:"base_price"`
	Currency          string `json:"currency"`
	PendingRequests   int    `json:"pending_requests"`
	AvailablePartners int    `json:"available_partners"`
	Priority          string `json:"priority"`
	// Hour overrides the clock hour when set; -1 or absent means "now".
	Hour *int `json:"hour"`
}

func (h *PricingHandler) DynamicPrice(c *gin.Context) {
	var req dynamicPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	hour := -1
	if req.Hour != nil {
		hour = *req.Hour
	}
	price, err := h.pricing.DynamicPrice(
		types.Money{Amount: req.BasePrice, Currency: currency},
		req.PendingRequests,
		req.AvailablePartners,
		types.Priority(req.Priority),
		hour,
	)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"base_price":  req.BasePrice,
		"final_price": price.Amount,
		"currency":    price.Currency,
	})
}
