// README: Partner location and availability handlers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/order"
	"dray/internal/modules/partner"
	"dray/internal/types"
)

type PartnerHandler struct {
	partner *partner.Service
	order   *order.Service
}

func NewPartnerHandler(partnerSvc *partner.Service, orderSvc *order.Service) *PartnerHandler {
	return &PartnerHandler{partner: partnerSvc, order: orderSvc}
}

type locationReq struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateLocation ingests a position report. Stale reports (older than the
// stored position) are accepted and dropped, so couriers on flaky networks
// don't see spurious errors.
func (h *PartnerHandler) UpdateLocation(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing partner id")
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.partner.UpdateLocation(c.Request.Context(), partner.LocationUpdate{
		PartnerID: types.ID(id),
		Position:  types.Point{Lat: req.Lat, Lng: req.Lng},
		Timestamp: req.Timestamp,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}

// Availability reports whether the partner can take a job inside the window
// given by the window_start and window_end query parameters (RFC 3339).
func (h *PartnerHandler) Availability(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing partner id")
		return
	}
	start, err := time.Parse(time.RFC3339, c.Query("window_start"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "window_start must be RFC 3339")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("window_end"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "window_end must be RFC 3339")
		return
	}
	available, err := h.order.CheckAvailability(c.Request.Context(), types.ID(id), order.TimeWindow{Start: start, End: end})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"partner_id": id,
		"available":  available,
	})
}
