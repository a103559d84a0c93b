// README: Operations dashboard stats handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/stats"
)

type StatsHandler struct {
	stats *stats.Service
}

func NewStatsHandler(svc *stats.Service) *StatsHandler {
	return &StatsHandler{stats: svc}
}

func (h *StatsHandler) Snapshot(c *gin.Context) {
	snap, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, snap)
}
