// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dray/internal/http/handlers"
	"dray/internal/http/middleware"
	"dray/internal/modules/matching"
	"dray/internal/modules/order"
	"dray/internal/modules/partner"
	"dray/internal/modules/pricing"
	"dray/internal/modules/routing"
	"dray/internal/modules/stats"
)

type RouterDeps struct {
	Order    *order.Service
	Partner  *partner.Service
	Matching *matching.Service
	Pricing  *pricing.Service
	Routing  *routing.Service
	Stats    *stats.Service
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	orderHandler := handlers.NewOrderHandler(deps.Order)
	r.POST("/api/orders", orderHandler.Create)
	r.GET("/api/orders/:id", orderHandler.Get)
	r.GET("/api/orders/:id/tracking", orderHandler.Tracking)
	r.POST("/api/orders/:id/assign", orderHandler.Assign)
	r.POST("/api/orders/:id/pickup/start", orderHandler.StartPickup)
	r.POST("/api/orders/:id/pickup/confirm", orderHandler.ConfirmPickup)
	r.POST("/api/orders/:id/delivery/start", orderHandler.StartDelivery)
	r.POST("/api/orders/:id/complete", orderHandler.Complete)
	r.POST("/api/orders/:id/cancel", orderHandler.Cancel)
	r.POST("/api/orders/:id/fail", orderHandler.Fail)

	partnerHandler := handlers.NewPartnerHandler(deps.Partner, deps.Order)
	r.PUT("/api/partners/:id/location", partnerHandler.UpdateLocation)
	r.GET("/api/partners/:id/availability", partnerHandler.Availability)

	matchingHandler := handlers.NewMatchingHandler(deps.Matching)
	r.POST("/api/matching/search", matchingHandler.Search)

	routingHandler := handlers.NewRoutingHandler(deps.Routing)
	r.POST("/api/routes/optimize", routingHandler.Optimize)

	pricingHandler := handlers.NewPricingHandler(deps.Pricing)
	r.POST("/api/pricing/dynamic", pricingHandler.DynamicPrice)

	statsHandler := handlers.NewStatsHandler(deps.Stats)
	r.GET("/api/stats", statsHandler.Snapshot)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
