// README: Partner service; validates and applies high-frequency location updates.
package partner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"

	"dray/internal/types"
)

var ErrInvalidInput = errors.New("invalid partner input")

type locationStore interface {
	UpdateLocation(ctx context.Context, id types.ID, pos types.Point, at time.Time) (bool, error)
}

type Service struct {
	store locationStore
	clock clockz.Clock
}

func NewService(store locationStore, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{store: store, clock: clock}
}

// UpdateLocation applies a position report. Reports are last-write-wins: a
// report with a timestamp older than the stored position is dropped silently,
// matching queries tolerate a few seconds of staleness.
func (s *Service) UpdateLocation(ctx context.Context, u LocationUpdate) error {
	if u.PartnerID == "" {
		return fmt.Errorf("%w: missing partner id", ErrInvalidInput)
	}
	if !u.Position.Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	at := u.Timestamp
	if at.IsZero() {
		at = s.clock.Now()
	}
	_, err := s.store.UpdateLocation(ctx, u.PartnerID, u.Position, at)
	return err
}
