// README: Route optimization handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/routing"
	"dray/internal/types"
)

type RoutingHandler struct {
	routing *routing.Service
}

func NewRoutingHandler(svc *routing.Service) *RoutingHandler {
	return &RoutingHandler{routing: svc}
}

type optimizeReq struct {
	PartnerID string   `json:"partner_id"`
	OrderIDs  []string `json:"order_ids"`
}

func (h *RoutingHandler) Optimize(c *gin.Context) {
	var req optimizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ids := make([]types.ID, len(req.OrderIDs))
	for i, id := range req.OrderIDs {
		ids[i] = types.ID(id)
	}
	plan, err := h.routing.Optimize(c.Request.Context(), types.ID(req.PartnerID), ids)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, plan)
}
