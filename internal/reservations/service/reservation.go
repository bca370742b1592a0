package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"railbook/internal/events"
	invservice "railbook/internal/inventory/service"
	reserrors "railbook/internal/reservations/errors"
	"railbook/internal/reservations/repository"
	"railbook/internal/reservations/validator"
	schederrors "railbook/internal/schedules/errors"
	schedrepo "railbook/internal/schedules/repository"
	"railbook/pkg/config"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReservationService is the seat-lock state machine. A hold moves
// Active → Processing → Committed, with Active → Cancelled/Expired as
// terminal side exits and Processing → Active as the single rollback path.
// Every transition is a status-guarded conditional update; every occupancy
// change happens in the same transaction as the transition that justifies it.
type ReservationService interface {
	CreateHold(ctx context.Context, req *validator.CreateHoldRequest) (*model.ReservationHold, error)
	BeginCommit(ctx context.Context, holdID string) (bool, error)
	Commit(ctx context.Context, holdID string) ([]string, error)
	RollbackCommit(ctx context.Context, holdID string) error
	CancelHold(ctx context.Context, holdID string) error
	CancelTicket(ctx context.Context, ticketID string) error
	GetHold(ctx context.Context, holdID string) (*model.ReservationHold, error)
	GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error)
}

type reservationService struct {
	holds     repository.HoldRepository
	tickets   repository.TicketRepository
	inventory invservice.InventoryService
	journeys  schedrepo.JourneyRepository
	trains    schedrepo.TrainRepository
	validator *validator.HoldValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewReservationService(
	holds repository.HoldRepository,
	tickets repository.TicketRepository,
	inventory invservice.InventoryService,
	journeys schedrepo.JourneyRepository,
	trains schedrepo.TrainRepository,
	holdValidator *validator.HoldValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		holds:     holds,
		tickets:   tickets,
		inventory: inventory,
		journeys:  journeys,
		trains:    trains,
		validator: holdValidator,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// journeyData caches everything needed to vet and price seats of one journey.
type journeyData struct {
	journey  *model.ConcreteJourney
	train    *model.Train
	segments map[int]*model.ConcreteSegment
}

func (s *reservationService) CreateHold(ctx context.Context, req *validator.CreateHoldRequest) (*model.ReservationHold, error) {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Hold request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid hold request", map[string]any{"error": err.Error()})
	}

	journeyInfo, err := s.loadJourneyData(ctx, req)
	if err != nil {
		return nil, err
	}

	heldSeats := make([]model.HeldSeat, 0, len(req.Seats))
	for i := range req.Seats {
		seat := &req.Seats[i]
		data := journeyInfo[seat.JourneyID]

		price, err := s.vetAndPriceSeat(seat, data)
		if err != nil {
			return nil, err
		}

		heldSeats = append(heldSeats, model.HeldSeat{
			JourneyID:     seat.JourneyID,
			StartSegment:  seat.StartSegment,
			EndSegment:    seat.EndSegment,
			CarriageID:    seat.CarriageID,
			SeatIndex:     seat.SeatIndex,
			PassengerName: seat.PassengerName,
			Price:         price,
		})
	}

	hold := &model.ReservationHold{
		CustomerID: req.CustomerID,
		Status:     model.HoldActive,
		Seats:      heldSeats,
		ExpiresAt:  s.now().Add(s.cfg.HoldTTL),
	}

	// One transaction covers every availability check, every flip and the
	// hold insert: either the customer gets all requested seats or the
	// bitmaps are left untouched.
	err = s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		for _, seat := range heldSeats {
			available, err := s.inventory.IsSpanAvailable(sessCtx, seat.JourneyID, seat.StartSegment, seat.EndSegment, seat.CarriageID, seat.SeatIndex)
			if err != nil {
				return err
			}
			if !available {
				return seatUnavailable(seat)
			}
		}
		for _, seat := range heldSeats {
			flipped, err := s.inventory.FlipSpan(sessCtx, seat.JourneyID, seat.StartSegment, seat.EndSegment, seat.CarriageID, seat.SeatIndex, true)
			if err != nil {
				return err
			}
			if !flipped {
				return seatUnavailable(seat)
			}
		}
		return s.holds.Create(sessCtx, hold)
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		s.cfg.Log.Error("Failed to create hold", "customer_id", req.CustomerID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to create reservation hold", err)
	}

	s.cfg.Log.Info("Hold created",
		"hold_id", hold.ID,
		"customer_id", hold.CustomerID,
		"seats", len(hold.Seats),
		"expires_at", hold.ExpiresAt,
	)
	s.publisher.Publish(ctx, events.EventHoldCreated, hold.ID, hold)
	return hold, nil
}

func (s *reservationService) loadJourneyData(ctx context.Context, req *validator.CreateHoldRequest) (map[string]*journeyData, error) {
	journeyInfo := make(map[string]*journeyData)
	for i := range req.Seats {
		journeyID := req.Seats[i].JourneyID
		if _, ok := journeyInfo[journeyID]; ok {
			continue
		}

		journey, err := s.journeys.FindByID(ctx, journeyID)
		if err != nil {
			if errors.Is(err, schederrors.ErrJourneyNotFound) || errors.Is(err, schederrors.ErrInvalidID) {
				return nil, apperrors.NotFoundWithID("Journey", journeyID)
			}
			return nil, apperrors.Internal("Failed to load journey", err)
		}

		train, err := s.trains.FindByID(ctx, journey.TrainID)
		if err != nil {
			if errors.Is(err, schederrors.ErrTrainNotFound) {
				return nil, apperrors.NotFoundWithID("Train", journey.TrainID)
			}
			return nil, apperrors.Internal("Failed to load train", err)
		}

		segmentList, err := s.journeys.FindSegments(ctx, journeyID)
		if err != nil {
			return nil, apperrors.Internal("Failed to load journey segments", err)
		}
		segments := make(map[int]*model.ConcreteSegment, len(segmentList))
		for _, segment := range segmentList {
			segments[segment.SegmentNumber] = segment
		}

		journeyInfo[journeyID] = &journeyData{
			journey:  journey,
			train:    train,
			segments: segments,
		}
	}
	return journeyInfo, nil
}

// vetAndPriceSeat checks the span against the journey's real segment range,
// the carriage catalog and the departure clock, then freezes the price:
// the span's segment costs scaled by the carriage multiplier.
func (s *reservationService) vetAndPriceSeat(seat *validator.SeatRequest, data *journeyData) (int64, error) {
	carriage := data.train.Carriage(seat.CarriageID)
	if carriage == nil {
		return 0, apperrors.NotFoundWithID("Carriage", seat.CarriageID)
	}
	if seat.SeatIndex >= carriage.TotalSeats {
		return 0, apperrors.InvalidInput(fmt.Sprintf(
			"Seat index %d out of range for carriage %s (%d seats)",
			seat.SeatIndex, seat.CarriageID, carriage.TotalSeats,
		))
	}

	var costSum int64
	for num := seat.StartSegment; num <= seat.EndSegment; num++ {
		segment, ok := data.segments[num]
		if !ok {
			return 0, apperrors.InvalidInput(fmt.Sprintf(
				"Segment %d does not exist on journey %s", num, seat.JourneyID,
			))
		}
		costSum += segment.SegmentCost
	}

	startSegment := data.segments[seat.StartSegment]
	if !startSegment.DepartureTime.After(s.now()) {
		return 0, apperrors.Conflict(fmt.Sprintf(
			"Journey %s segment %d has already departed", seat.JourneyID, seat.StartSegment,
		))
	}

	return int64(math.Round(float64(costSum) * carriage.PriceMultiplier)), nil
}

func seatUnavailable(seat model.HeldSeat) error {
	return apperrors.ConflictWithDetails("Seat is not available for the requested span", map[string]any{
		"journey_id":    seat.JourneyID,
		"carriage_id":   seat.CarriageID,
		"seat_index":    seat.SeatIndex,
		"start_segment": seat.StartSegment,
		"end_segment":   seat.EndSegment,
	})
}

// BeginCommit moves a hold into payment processing. The conditional update
// both guards the transition and pushes the expiry out by the processing
// window so the sweeper cannot reclaim the hold mid-payment. A false return
// means the hold was not Active; the payment collaborator must treat that as
// a hard failure.
func (s *reservationService) BeginCommit(ctx context.Context, holdID string) (bool, error) {
	if holdID == "" {
		return false, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	processingDeadline := s.now().Add(s.cfg.ProcessingWindow)
	ok, err := s.holds.UpdateStatusIf(ctx, holdID, model.HoldActive, model.HoldProcessing, &processingDeadline)
	if err != nil {
		if errors.Is(err, reserrors.ErrInvalidID) {
			return false, apperrors.InvalidInput("Invalid hold ID format")
		}
		return false, apperrors.Internal("Failed to begin hold commit", err)
	}
	if !ok {
		if _, findErr := s.holds.FindByID(ctx, holdID); errors.Is(findErr, reserrors.ErrHoldNotFound) {
			return false, apperrors.NotFoundWithID("Hold", holdID)
		}
		s.cfg.Log.Info("BeginCommit refused, hold not active", "hold_id", holdID)
		return false, nil
	}

	s.cfg.Log.Info("Hold entered processing", "hold_id", holdID, "deadline", processingDeadline)
	return true, nil
}

// Commit turns every held seat into a payed ticket and finishes the hold.
// Seats stay occupied throughout: the customer already owns them. If ticket
// creation fails the hold is rolled back to Active so payment can be retried.
func (s *reservationService) Commit(ctx context.Context, holdID string) ([]string, error) {
	hold, err := s.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if hold.Status != model.HoldProcessing {
		return nil, apperrors.Conflict(fmt.Sprintf(
			"Hold must be processing to commit, current status: %s", hold.Status,
		))
	}

	tickets, err := s.buildTickets(ctx, hold)
	if err != nil {
		return nil, err
	}

	err = s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.tickets.CreateMany(sessCtx, tickets); err != nil {
			return err
		}
		ok, err := s.holds.UpdateStatusIf(sessCtx, holdID, model.HoldProcessing, model.HoldCommitted, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Conflict("Hold left processing state during commit")
		}
		return nil
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, err
		}
		// Ticket creation failed after payment started; restore the hold to
		// Active so the customer can retry without losing the seats.
		s.restoreToActive(ctx, holdID)
		s.cfg.Log.Error("Failed to commit hold", "hold_id", holdID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to commit hold", err)
	}

	ticketIDs := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ticketIDs = append(ticketIDs, t.ID)
	}

	s.cfg.Log.Info("Hold committed", "hold_id", holdID, "tickets", len(ticketIDs))
	s.publisher.Publish(ctx, events.EventHoldCommitted, holdID, map[string]any{
		"hold_id":    holdID,
		"ticket_ids": ticketIDs,
	})
	s.publisher.Publish(ctx, events.EventTicketsIssued, holdID, tickets)
	return ticketIDs, nil
}

func (s *reservationService) buildTickets(ctx context.Context, hold *model.ReservationHold) ([]*model.Ticket, error) {
	departures := make(map[string]map[int]time.Time)
	for _, seat := range hold.Seats {
		if _, ok := departures[seat.JourneyID]; ok {
			continue
		}
		segments, err := s.journeys.FindSegments(ctx, seat.JourneyID)
		if err != nil {
			return nil, apperrors.Internal("Failed to load journey segments", err)
		}
		byNumber := make(map[int]time.Time, len(segments))
		for _, segment := range segments {
			byNumber[segment.SegmentNumber] = segment.DepartureTime
		}
		departures[seat.JourneyID] = byNumber
	}

	tickets := make([]*model.Ticket, 0, len(hold.Seats))
	for _, seat := range hold.Seats {
		departure, ok := departures[seat.JourneyID][seat.StartSegment]
		if !ok {
			return nil, apperrors.Internal("Held seat references a missing segment",
				fmt.Errorf("journey %s segment %d", seat.JourneyID, seat.StartSegment))
		}
		tickets = append(tickets, &model.Ticket{
			HoldID:        hold.ID,
			CustomerID:    hold.CustomerID,
			JourneyID:     seat.JourneyID,
			StartSegment:  seat.StartSegment,
			EndSegment:    seat.EndSegment,
			CarriageID:    seat.CarriageID,
			SeatIndex:     seat.SeatIndex,
			PassengerName: seat.PassengerName,
			Price:         seat.Price,
			DepartureTime: departure,
			Status:        model.TicketPayed,
		})
	}
	return tickets, nil
}

func (s *reservationService) restoreToActive(ctx context.Context, holdID string) {
	expiry := s.now().Add(s.cfg.HoldTTL)
	ok, err := s.holds.UpdateStatusIf(ctx, holdID, model.HoldProcessing, model.HoldActive, &expiry)
	if err != nil || !ok {
		s.cfg.Log.Error("Failed to restore hold to active after commit failure",
			"hold_id", holdID,
			"restored", ok,
			"error", err,
		)
	}
}

// RollbackCommit is the payment collaborator's escape hatch: payment failed
// before any ticket existed, so the hold returns to Active with a fresh TTL.
func (s *reservationService) RollbackCommit(ctx context.Context, holdID string) error {
	if holdID == "" {
		return apperrors.InvalidInput("Hold ID cannot be empty")
	}

	expiry := s.now().Add(s.cfg.HoldTTL)
	ok, err := s.holds.UpdateStatusIf(ctx, holdID, model.HoldProcessing, model.HoldActive, &expiry)
	if err != nil {
		if errors.Is(err, reserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid hold ID format")
		}
		return apperrors.Internal("Failed to roll back hold", err)
	}
	if !ok {
		if _, findErr := s.holds.FindByID(ctx, holdID); errors.Is(findErr, reserrors.ErrHoldNotFound) {
			return apperrors.NotFoundWithID("Hold", holdID)
		}
		return apperrors.Conflict("Hold is not in processing state")
	}

	s.cfg.Log.Info("Hold rolled back to active", "hold_id", holdID)
	return nil
}

// CancelHold is the user-initiated exit from Active. The status guard and
// the seat releases share one transaction, so a hold that raced into
// Processing keeps its seats untouched.
func (s *reservationService) CancelHold(ctx context.Context, holdID string) error {
	hold, err := s.GetHold(ctx, holdID)
	if err != nil {
		return err
	}

	err = s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		ok, err := s.holds.UpdateStatusIf(sessCtx, holdID, model.HoldActive, model.HoldCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Conflict(fmt.Sprintf(
				"Hold cannot be cancelled, current status: %s", hold.Status,
			))
		}
		return s.releaseSeats(sessCtx, hold.Seats)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to cancel hold", err)
	}

	s.cfg.Log.Info("Hold cancelled", "hold_id", holdID, "seats_released", len(hold.Seats))
	s.publisher.Publish(ctx, events.EventHoldCancelled, holdID, map[string]any{
		"hold_id": holdID,
		"seats":   len(hold.Seats),
	})
	return nil
}

// releaseSeats flips every held seat back to free. A failed flip here means
// the occupancy no longer reflects the hold that owns it; that is an
// invariant breach worth aborting the transaction for.
func (s *reservationService) releaseSeats(ctx context.Context, seats []model.HeldSeat) error {
	for _, seat := range seats {
		flipped, err := s.inventory.FlipSpan(ctx, seat.JourneyID, seat.StartSegment, seat.EndSegment, seat.CarriageID, seat.SeatIndex, false)
		if err != nil {
			return err
		}
		if !flipped {
			return apperrors.Internal("Failed to release held seat",
				fmt.Errorf("journey %s carriage %s seat %d", seat.JourneyID, seat.CarriageID, seat.SeatIndex))
		}
	}
	return nil
}

// CancelTicket refunds a payed ticket for a journey that has not yet
// departed and frees its seat. Cancelling after departure is rejected: the
// seat was consumed and retirement is the sweeper's job.
func (s *reservationService) CancelTicket(ctx context.Context, ticketID string) error {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Status != model.TicketPayed {
		return apperrors.Conflict(fmt.Sprintf(
			"Only payed tickets can be cancelled, current status: %s", ticket.Status,
		))
	}
	if !ticket.DepartureTime.After(s.now()) {
		return apperrors.Conflict("Ticket journey has already departed")
	}

	err = s.holds.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		ok, err := s.tickets.UpdateStatusIf(sessCtx, ticketID, model.TicketPayed, model.TicketCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Conflict("Ticket is no longer payed")
		}
		seat := model.HeldSeat{
			JourneyID:    ticket.JourneyID,
			StartSegment: ticket.StartSegment,
			EndSegment:   ticket.EndSegment,
			CarriageID:   ticket.CarriageID,
			SeatIndex:    ticket.SeatIndex,
		}
		return s.releaseSeats(sessCtx, []model.HeldSeat{seat})
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.Internal("Failed to cancel ticket", err)
	}

	s.cfg.Log.Info("Ticket cancelled", "ticket_id", ticketID, "journey_id", ticket.JourneyID)
	s.publisher.Publish(ctx, events.EventTicketCancelled, ticketID, ticket)
	return nil
}

func (s *reservationService) GetHold(ctx context.Context, holdID string) (*model.ReservationHold, error) {
	if holdID == "" {
		return nil, apperrors.InvalidInput("Hold ID cannot be empty")
	}

	hold, err := s.holds.FindByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, reserrors.ErrHoldNotFound) {
			return nil, apperrors.NotFoundWithID("Hold", holdID)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid hold ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve hold", err)
	}
	return hold, nil
}

func (s *reservationService) GetTicket(ctx context.Context, ticketID string) (*model.Ticket, error) {
	if ticketID == "" {
		return nil, apperrors.InvalidInput("Ticket ID cannot be empty")
	}

	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, reserrors.ErrTicketNotFound) {
			return nil, apperrors.NotFoundWithID("Ticket", ticketID)
		}
		if errors.Is(err, reserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid ticket ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve ticket", err)
	}
	return ticket, nil
}
