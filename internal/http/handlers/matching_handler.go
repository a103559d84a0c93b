// README: Matching search handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/matching"
)

type MatchingHandler struct {
	matching *matching.Service
}

func NewMatchingHandler(svc *matching.Service) *MatchingHandler {
	return &MatchingHandler{matching: svc}
}

// Search ranks available partners for a delivery request. An empty match list
// is a normal 200; clients broaden criteria or queue on their side.
func (h *MatchingHandler) Search(c *gin.Context) {
	var criteria matching.Criteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	matches, err := h.matching.FindNearestPartners(c.Request.Context(), criteria)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if matches == nil {
		matches = []matching.Match{}
	}
	writeJSON(c, http.StatusOK, map[string]any{
		"matches": matches,
		"count":   len(matches),
	})
}
