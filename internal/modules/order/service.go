// README: Order service: lifecycle transitions, fee computation, availability.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"

	"dray/internal/geo"
	"dray/internal/modules/partner"
	"dray/internal/types"
)

var (
	ErrNotFound     = errors.New("order not found")
	ErrInvalidInput = errors.New("invalid order input")
	// ErrInvalidState marks a disallowed status transition; the order is left
	// unchanged.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict marks a lost optimistic or assignment race; the caller
	// should refresh and retry.
	ErrConflict = errors.New("order state conflict")
)

// defaultCommissionRate applies to partners with no negotiated rate.
const defaultCommissionRate = 0.20

type orderStore interface {
	Create(ctx context.Context, o *DeliveryOrder) error
	Get(ctx context.Context, id types.ID) (*DeliveryOrder, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, partnerID *types.ID) (bool, error)
	FinalizeFees(ctx context.Context, id types.ID, fees FeeBreakdown) error
	AppendEvent(ctx context.Context, e *TrackingEvent) error
	ListEvents(ctx context.Context, orderID types.ID) ([]TrackingEvent, error)
	ListActiveForPartner(ctx context.Context, partnerID types.ID, window TimeWindow) ([]DeliveryOrder, error)
}

type partnerOps interface {
	Get(ctx context.Context, id types.ID) (*partner.DispatchPartner, error)
	SetAssignment(ctx context.Context, partnerID, orderID types.ID) error
	ClearAssignment(ctx context.Context, partnerID, orderID types.ID) error
	RecordOutcome(ctx context.Context, partnerID types.ID, completed, onTime bool) error
}

type feeQuoter interface {
	Quote(ctx context.Context, distanceKm float64, vehicle types.VehicleType, priority types.Priority) (types.Money, error)
}

type Service struct {
	store    orderStore
	partners partnerOps
	pricing  feeQuoter
	clock    clockz.Clock
}

func NewService(store orderStore, partners partnerOps, pricing feeQuoter, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{store: store, partners: partners, pricing: pricing, clock: clock}
}

type CreateCommand struct {
	MarketplaceOrderID types.ID
	CustomerID         types.ID
	Pickup             Address
	Dropoff            Address
	PickupWindow       TimeWindow
	DeliveryWindow     TimeWindow
	Package            PackageDetails
	DeliveryType       string
	Priority           types.Priority
	VehicleType        types.VehicleType
	Tip                int64
}

type AssignCommand struct {
	OrderID   types.ID
	PartnerID types.ID
}

// TransitionCommand drives one forward step of the delivery flow; Position
// and Note feed the tracking event.
type TransitionCommand struct {
	OrderID  types.ID
	Position *types.Point
	Note     string
}

type CancelCommand struct {
	OrderID types.ID
	Reason  string
}

// Create registers a pending delivery order with a fee quote computed over
// the pickup-to-dropoff leg.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.CustomerID == "" {
		return "", fmt.Errorf("%w: missing customer id", ErrInvalidInput)
	}
	if !cmd.Pickup.Point.Valid() || !cmd.Dropoff.Point.Valid() {
		return "", fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if !cmd.PickupWindow.Zero() && !cmd.PickupWindow.Valid() {
		return "", fmt.Errorf("%w: malformed pickup window", ErrInvalidInput)
	}
	if !cmd.DeliveryWindow.Zero() && !cmd.DeliveryWindow.Valid() {
		return "", fmt.Errorf("%w: malformed delivery window", ErrInvalidInput)
	}
	if cmd.Package.WeightKg < 0 || cmd.Tip < 0 {
		return "", fmt.Errorf("%w: negative weight or tip", ErrInvalidInput)
	}
	vehicle := cmd.VehicleType
	if vehicle == "" {
		vehicle = types.VehicleCar
	}
	if !vehicle.Known() {
		return "", fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, cmd.VehicleType)
	}
	priority := cmd.Priority
	if priority == "" {
		priority = types.PriorityStandard
	}
	if !priority.Known() {
		return "", fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, cmd.Priority)
	}

	legKm := geo.DistanceKm(cmd.Pickup.Point, cmd.Dropoff.Point)
	fee, err := s.pricing.Quote(ctx, legKm, vehicle, priority)
	if err != nil {
		return "", fmt.Errorf("create order: quote fee: %w", err)
	}

	now := s.clock.Now()
	id := types.ID(uuid.NewString())
	o := &DeliveryOrder{
		ID:                 id,
		MarketplaceOrderID: cmd.MarketplaceOrderID,
		CustomerID:         cmd.CustomerID,
		Pickup:             cmd.Pickup,
		Dropoff:            cmd.Dropoff,
		PickupWindow:       cmd.PickupWindow,
		DeliveryWindow:     cmd.DeliveryWindow,
		Package:            cmd.Package,
		DeliveryType:       cmd.DeliveryType,
		Priority:           priority,
		VehicleType:        vehicle,
		Status:             StatusPending,
		StatusVersion:      0,
		Fees: FeeBreakdown{
			DeliveryFee: fee,
			Tip:         types.Money{Amount: cmd.Tip, Currency: fee.Currency},
		},
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, o); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	s.appendEvent(ctx, id, StatusPending, nil, "order created")
	return id, nil
}

// Assign claims the partner for the order, then moves the order from pending
// to assigned. The partner claim is conditional (assign-if-still-unassigned);
// losing either race surfaces ErrConflict and the caller should rerun
// matching against a refreshed pool.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusAssigned) {
		return ErrInvalidState
	}

	if err := s.partners.SetAssignment(ctx, cmd.PartnerID, o.ID); err != nil {
		if errors.Is(err, partner.ErrConflict) {
			return ErrConflict
		}
		if errors.Is(err, partner.ErrNotFound) {
			return fmt.Errorf("assign order: %w", err)
		}
		return err
	}

	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusAssigned, o.StatusVersion, &cmd.PartnerID)
	if err != nil || !ok {
		// Roll the partner claim back so the partner is not stuck holding a
		// never-assigned order.
		_ = s.partners.ClearAssignment(ctx, cmd.PartnerID, o.ID)
		if err != nil {
			return err
		}
		return ErrConflict
	}
	s.appendEvent(ctx, o.ID, StatusAssigned, nil, "partner assigned")
	return nil
}

func (s *Service) StartPickup(ctx context.Context, cmd TransitionCommand) error {
	return s.transition(ctx, cmd, StatusPickupInProgress)
}

func (s *Service) ConfirmPickup(ctx context.Context, cmd TransitionCommand) error {
	return s.transition(ctx, cmd, StatusPickedUp)
}

func (s *Service) StartDelivery(ctx context.Context, cmd TransitionCommand) error {
	return s.transition(ctx, cmd, StatusDeliveryInProgress)
}

// Complete marks the order delivered, releases the partner, finalizes the fee
// split, and folds the outcome into the partner's counters.
func (s *Service) Complete(ctx context.Context, cmd TransitionCommand) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, StatusDelivered) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, StatusDelivered, o.StatusVersion, o.PartnerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, o.ID, StatusDelivered, cmd.Position, cmd.Note)

	if o.PartnerID != nil {
		pid := *o.PartnerID
		_ = s.partners.ClearAssignment(ctx, pid, o.ID)

		now := s.clock.Now()
		onTime := o.DeliveryWindow.Zero() || !now.After(o.DeliveryWindow.End)
		_ = s.partners.RecordOutcome(ctx, pid, true, onTime)

		if fees, err := s.settleFees(ctx, o, pid); err == nil {
			_ = s.store.FinalizeFees(ctx, o.ID, fees)
		}
	}
	return nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	return s.terminate(ctx, cmd.OrderID, StatusCancelled, cmd.Reason)
}

func (s *Service) Fail(ctx context.Context, cmd CancelCommand) error {
	return s.terminate(ctx, cmd.OrderID, StatusFailed, cmd.Reason)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*DeliveryOrder, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Tracking(ctx context.Context, id types.ID) ([]TrackingEvent, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, id)
}

// CheckAvailability reports whether the partner can take a job in the given
// window: false for unknown or inactive partners, and false when any order in
// an active status overlaps the window through either its pickup or delivery
// window.
func (s *Service) CheckAvailability(ctx context.Context, partnerID types.ID, window TimeWindow) (bool, error) {
	if !window.Valid() {
		return false, fmt.Errorf("%w: malformed time window", ErrInvalidInput)
	}
	p, err := s.partners.Get(ctx, partnerID)
	if errors.Is(err, partner.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !p.Active {
		return false, nil
	}

	active, err := s.store.ListActiveForPartner(ctx, partnerID, window)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	for _, o := range active {
		if !o.Status.Active() {
			continue
		}
		if (o.PickupWindow.Valid() && o.PickupWindow.Overlaps(window)) ||
			(o.DeliveryWindow.Valid() && o.DeliveryWindow.Overlaps(window)) {
			return false, nil
		}
	}
	return true, nil
}

func (s *Service) transition(ctx context.Context, cmd TransitionCommand, to Status) error {
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, o.PartnerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, o.ID, to, cmd.Position, cmd.Note)
	return nil
}

func (s *Service) terminate(ctx context.Context, id types.ID, to Status, reason string) error {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(o.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, o.Status, to, o.StatusVersion, o.PartnerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	s.appendEvent(ctx, o.ID, to, nil, reason)

	if o.PartnerID != nil {
		pid := *o.PartnerID
		_ = s.partners.ClearAssignment(ctx, pid, o.ID)
		_ = s.partners.RecordOutcome(ctx, pid, false, false)
	}
	return nil
}

// settleFees splits the delivery fee between the partner and the platform
// using the partner's commission rate; tips pass through untouched.
func (s *Service) settleFees(ctx context.Context, o *DeliveryOrder, partnerID types.ID) (FeeBreakdown, error) {
	p, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return FeeBreakdown{}, err
	}
	rate := p.CommissionRate
	if rate <= 0 || rate >= 1 {
		rate = defaultCommissionRate
	}

	fee := o.Fees.DeliveryFee
	commission := int64(math.Round(float64(fee.Amount) * rate))
	earnings := fee.Amount - commission + o.Fees.Tip.Amount

	return FeeBreakdown{
		DeliveryFee:        fee,
		PartnerEarnings:    types.Money{Amount: earnings, Currency: fee.Currency},
		PlatformCommission: types.Money{Amount: commission, Currency: fee.Currency},
		Tip:                o.Fees.Tip,
	}, nil
}

// appendEvent writes one tracking entry; event persistence is best-effort and
// never blocks a committed transition.
func (s *Service) appendEvent(ctx context.Context, orderID types.ID, status Status, pos *types.Point, note string) {
	_ = s.store.AppendEvent(ctx, &TrackingEvent{
		ID:        types.ID(uuid.NewString()),
		OrderID:   orderID,
		Status:    status,
		Position:  pos,
		Note:      note,
		CreatedAt: s.clock.Now(),
	})
}
