// README: Delivery order lifecycle handlers.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dray/internal/modules/order"
	"dray/internal/types"
)

type OrderHandler struct {
	order *order.Service
}

func NewOrderHandler(svc *order.Service) *OrderHandler {
	return &OrderHandler{order: svc}
}

type addressReq struct {
	Label   string  `json:"label"`
	Contact string  `json:"contact"`
	Phone   string  `json:"phone"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (a addressReq) toAddress() order.Address {
	return order.Address{
		Label:   a.Label,
		Contact: a.Contact,
		Phone:   a.Phone,
		Point:   types.Point{Lat: a.Lat, Lng: a.Lng},
	}
}

type windowReq struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type createOrderReq struct {
	MarketplaceOrderID string               `json:"marketplace_order_id"`
	CustomerID         string               `json:"customer_id"`
	Pickup             addressReq           `json:"pickup"`
	Dropoff            addressReq           `json:"dropoff"`
	PickupWindow       *windowReq           `json:"pickup_window"`
	DeliveryWindow     *windowReq           `json:"delivery_window"`
	Package            order.PackageDetails `json:"package"`
	DeliveryType       string               `json:"delivery_type"`
	Priority           string               `json:"priority"`
	VehicleType        string               `json:"vehicle_type"`
	Tip                int64                `json:"tip"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := order.CreateCommand{
		MarketplaceOrderID: types.ID(req.MarketplaceOrderID),
		CustomerID:         types.ID(req.CustomerID),
		Pickup:             req.Pickup.toAddress(),
		Dropoff:            req.Dropoff.toAddress(),
		Package:            req.Package,
		DeliveryType:       req.DeliveryType,
		Priority:           types.Priority(req.Priority),
		VehicleType:        types.VehicleType(req.VehicleType),
		Tip:                req.Tip,
	}
	if req.PickupWindow != nil {
		cmd.PickupWindow = order.TimeWindow{Start: req.PickupWindow.Start, End: req.PickupWindow.End}
	}
	if req.DeliveryWindow != nil {
		cmd.DeliveryWindow = order.TimeWindow{Start: req.DeliveryWindow.Start, End: req.DeliveryWindow.End}
	}
	id, err := h.order.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"order_id": id, "status": order.StatusPending})
}

func (h *OrderHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	o, err := h.order.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, orderView(o))
}

type assignReq struct {
	PartnerID string `json:"partner_id"`
}

// Assign claims a partner for the order. A 409 means the claim or the status
// update lost a race; the dispatcher re-runs matching and retries.
func (h *OrderHandler) Assign(c *gin.Context) {
	id := c.Param("id")
	var req assignReq
	if err := c.ShouldBindJSON(&req); err != nil || req.PartnerID == "" {
		writeError(c, http.StatusBadRequest, "missing partner_id")
		return
	}
	err := h.order.Assign(c.Request.Context(), order.AssignCommand{
		OrderID:   types.ID(id),
		PartnerID: types.ID(req.PartnerID),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": order.StatusAssigned})
}

type transitionReq struct {
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Note string   `json:"note"`
}

func (r transitionReq) toCommand(id string) order.TransitionCommand {
	cmd := order.TransitionCommand{OrderID: types.ID(id), Note: r.Note}
	if r.Lat != nil && r.Lng != nil {
		cmd.Position = &types.Point{Lat: *r.Lat, Lng: *r.Lng}
	}
	return cmd
}

func (h *OrderHandler) StartPickup(c *gin.Context) {
	h.step(c, h.order.StartPickup, order.StatusPickupInProgress)
}

func (h *OrderHandler) ConfirmPickup(c *gin.Context) {
	h.step(c, h.order.ConfirmPickup, order.StatusPickedUp)
}

func (h *OrderHandler) StartDelivery(c *gin.Context) {
	h.step(c, h.order.StartDelivery, order.StatusDeliveryInProgress)
}

func (h *OrderHandler) Complete(c *gin.Context) {
	h.step(c, h.order.Complete, order.StatusDelivered)
}

func (h *OrderHandler) step(c *gin.Context, run func(ctx context.Context, cmd order.TransitionCommand) error, done order.Status) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	var req transitionReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	if err := run(c.Request.Context(), req.toCommand(id)); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": done})
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	h.terminate(c, h.order.Cancel, order.StatusCancelled)
}

func (h *OrderHandler) Fail(c *gin.Context) {
	h.terminate(c, h.order.Fail, order.StatusFailed)
}

func (h *OrderHandler) terminate(c *gin.Context, run func(ctx context.Context, cmd order.CancelCommand) error, done order.Status) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	var req cancelReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "invalid json")
			return
		}
	}
	err := run(c.Request.Context(), order.CancelCommand{OrderID: types.ID(id), Reason: req.Reason})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": done})
}

func (h *OrderHandler) Tracking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing order id")
		return
	}
	events, err := h.order.Tracking(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if events == nil {
		events = []order.TrackingEvent{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"order_id": id, "events": events})
}

func orderView(o *order.DeliveryOrder) map[string]any {
	v := map[string]any{
		"order_id":     o.ID,
		"customer_id":  o.CustomerID,
		"status":       o.Status,
		"priority":     o.Priority,
		"vehicle_type": o.VehicleType,
		"pickup":       o.Pickup,
		"dropoff":      o.Dropoff,
		"fees":         o.Fees,
		"created_at":   o.CreatedAt,
	}
	if o.PartnerID != nil {
		v["partner_id"] = *o.PartnerID
	}
	if o.DeliveredAt != nil {
		v["delivered_at"] = *o.DeliveredAt
	}
	if o.CancelReason != nil {
		v["cancel_reason"] = *o.CancelReason
	}
	return v
}
