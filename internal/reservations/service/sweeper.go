package service

import (
	"context"
	"errors"
	"time"

	"railbook/internal/events"
	invservice "railbook/internal/inventory/service"
	"railbook/internal/reservations/repository"
	"railbook/pkg/config"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// errHoldAlreadyHandled aborts a reclaim transaction when another actor won
// the status race. It never leaves the sweeper.
var errHoldAlreadyHandled = errors.New("hold already handled by another actor")

// SweeperService reclaims abandoned holds and retires departed tickets.
// Both operations are idempotent batch passes driven by a worker Runner.
type SweeperService interface {
	SweepExpiredHolds(ctx context.Context) (int, error)
	RetireDepartedTickets(ctx context.Context) (int64, error)
}

type sweeperService struct {
	holds     repository.HoldRepository
	tickets   repository.TicketRepository
	inventory invservice.InventoryService
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewSweeperService(
	holds repository.HoldRepository,
	tickets repository.TicketRepository,
	inventory invservice.InventoryService,
	publisher events.Publisher,
	cfg *config.Config,
) SweeperService {
	return &sweeperService{
		holds:     holds,
		tickets:   tickets,
		inventory: inventory,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SweepExpiredHolds reclaims one batch of Active holds whose expiry has
// passed. The candidate query runs outside any transaction; each hold is
// then reclaimed in its own transaction whose status guard decides the race
// against a concurrent BeginCommit. Losing that race is not an error, the
// hold simply belongs to the payment flow now.
func (s *sweeperService) SweepExpiredHolds(ctx context.Context) (int, error) {
	holds, err := s.holds.FindExpired(ctx, s.now(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, apperrors.Internal("Failed to query expired holds", err)
	}
	if len(holds) == 0 {
		return 0, nil
	}

	reclaimed := 0
	for _, hold := range holds {
		if ctx.Err() != nil {
			return reclaimed, ctx.Err()
		}
		if err := s.reclaimHold(ctx, hold); err != nil {
			if errors.Is(err, errHoldAlreadyHandled) {
				continue
			}
			s.cfg.Log.Error("Failed to reclaim expired hold", "hold_id", hold.ID, "error", err)
			continue
		}
		reclaimed++
		s.cfg.Log.Info("Expired hold reclaimed", "hold_id", hold.ID, "seats_released", len(hold.Seats))
		s.publisher.Publish(ctx, events.EventHoldExpired, hold.ID, map[string]any{
			"hold_id": hold.ID,
			"seats":   len(hold.Seats),
		})
	}

	return reclaimed, nil
}

func (s *sweeperService) reclaimHold(ctx context.Context, hold *model.ReservationHold) error {
	return s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		ok, err := s.holds.UpdateStatusIf(sessCtx, hold.ID, model.HoldActive, model.HoldExpired, nil)
		if err != nil {
			return err
		}
		if !ok {
			return errHoldAlreadyHandled
		}
		for _, seat := range hold.Seats {
			flipped, err := s.inventory.FlipSpan(sessCtx, seat.JourneyID, seat.StartSegment, seat.EndSegment, seat.CarriageID, seat.SeatIndex, false)
			if err != nil {
				return err
			}
			if !flipped {
				return apperrors.Internal("Failed to release seat of expired hold",
					errors.New("occupancy out of sync with hold "+hold.ID))
			}
		}
		return nil
	})
}

// RetireDepartedTickets marks payed tickets whose departure passed more than
// the grace period ago as expired. Bitmaps are untouched: the journey's
// inventory is dead weight once the train has left.
func (s *sweeperService) RetireDepartedTickets(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.DepartureGrace)
	retired, err := s.tickets.RetireDeparted(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Internal("Failed to retire departed tickets", err)
	}
	if retired > 0 {
		s.cfg.Log.Info("Departed tickets retired", "count", retired, "cutoff", cutoff)
		s.publisher.Publish(ctx, events.EventTicketsRetired, cutoff.Format(time.RFC3339), map[string]any{
			"count":  retired,
			"cutoff": cutoff,
		})
	}
	return retired, nil
}
