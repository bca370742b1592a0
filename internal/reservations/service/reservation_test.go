package service

import (
	"context"
	"errors"
	"testing"
	"time"

	invservice "railbook/internal/inventory/service"
	"railbook/internal/reservations/validator"
	"railbook/pkg/config"
	mongotx "railbook/pkg/db/mongo"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/logger"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testJourneyID = "507f1f77bcf86cd799439011"
	testTrainID   = "507f1f77bcf86cd799439012"
	testHoldID    = "507f1f77bcf86cd799439013"
	testTicketID  = "507f1f77bcf86cd799439014"
)

// Frozen clock for every test: 2026-09-01 08:00 UTC, two hours before the
// fixture journey departs.
var testNow = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:              log,
		HoldTTL:          15 * time.Minute,
		ProcessingWindow: 2 * time.Minute,
		DepartureGrace:   time.Hour,
		SweepBatchSize:   100,
		MaxSeatsPerHold:  10,
	}
}

// Mock hold repository

type statusCall struct {
	id       string
	expected string
	next     string
	expiry   *time.Time
}

type mockHoldRepository struct {
	createFunc         func(ctx context.Context, hold *model.ReservationHold) error
	findByIDFunc       func(ctx context.Context, id string) (*model.ReservationHold, error)
	updateStatusIfFunc func(ctx context.Context, id, expected, next string, newExpiry *time.Time) (bool, error)
	findExpiredFunc    func(ctx context.Context, now time.Time, limit int) ([]*model.ReservationHold, error)

	createdHold *model.ReservationHold
	statusCalls []statusCall
}

func (m *mockHoldRepository) Create(ctx context.Context, hold *model.ReservationHold) error {
	m.createdHold = hold
	hold.ID = testHoldID
	if m.createFunc != nil {
		return m.createFunc(ctx, hold)
	}
	return nil
}

func (m *mockHoldRepository) FindByID(ctx context.Context, id string) (*model.ReservationHold, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockHoldRepository) UpdateStatusIf(ctx context.Context, id, expected, next string, newExpiry *time.Time) (bool, error) {
	m.statusCalls = append(m.statusCalls, statusCall{id: id, expected: expected, next: next, expiry: newExpiry})
	if m.updateStatusIfFunc != nil {
		return m.updateStatusIfFunc(ctx, id, expected, next, newExpiry)
	}
	return true, nil
}

func (m *mockHoldRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.ReservationHold, error) {
	if m.findExpiredFunc != nil {
		return m.findExpiredFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *mockHoldRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

// Mock ticket repository

type mockTicketRepository struct {
	createManyFunc     func(ctx context.Context, tickets []*model.Ticket) error
	findByIDFunc       func(ctx context.Context, id string) (*model.Ticket, error)
	updateStatusIfFunc func(ctx context.Context, id, expected, next string) (bool, error)
	retireDepartedFunc func(ctx context.Context, cutoff time.Time) (int64, error)

	createdTickets []*model.Ticket
	statusCalls    []statusCall
}

func (m *mockTicketRepository) CreateMany(ctx context.Context, tickets []*model.Ticket) error {
	if m.createManyFunc != nil {
		return m.createManyFunc(ctx, tickets)
	}
	m.createdTickets = tickets
	for i, t := range tickets {
		t.ID = testTicketID[:len(testTicketID)-1] + string(rune('0'+i))
	}
	return nil
}

func (m *mockTicketRepository) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepository) UpdateStatusIf(ctx context.Context, id, expected, next string) (bool, error) {
	m.statusCalls = append(m.statusCalls, statusCall{id: id, expected: expected, next: next})
	if m.updateStatusIfFunc != nil {
		return m.updateStatusIfFunc(ctx, id, expected, next)
	}
	return true, nil
}

func (m *mockTicketRepository) RetireDeparted(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.retireDepartedFunc != nil {
		return m.retireDepartedFunc(ctx, cutoff)
	}
	return 0, nil
}

// Mock inventory service

type flipCall struct {
	journeyID    string
	startSegment int
	endSegment   int
	carriageID   string
	seatIndex    int
	toOccupied   bool
}

type mockInventoryService struct {
	isSpanAvailableFunc func(journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error)
	flipSpanFunc        func(call flipCall) (bool, error)

	flips []flipCall
}

func (m *mockInventoryService) IsSpanAvailable(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error) {
	if m.isSpanAvailableFunc != nil {
		return m.isSpanAvailableFunc(journeyID, startSegment, endSegment, carriageID, seatIndex)
	}
	return true, nil
}

func (m *mockInventoryService) FlipSpan(ctx context.Context, journeyID string, startSegment, endSegment int, carriageID string, seatIndex int, toOccupied bool) (bool, error) {
	call := flipCall{
		journeyID:    journeyID,
		startSegment: startSegment,
		endSegment:   endSegment,
		carriageID:   carriageID,
		seatIndex:    seatIndex,
		toOccupied:   toOccupied,
	}
	m.flips = append(m.flips, call)
	if m.flipSpanFunc != nil {
		return m.flipSpanFunc(call)
	}
	return true, nil
}

func (m *mockInventoryService) CountFree(ctx context.Context, segmentID, carriageID string) (int, error) {
	return 0, nil
}

func (m *mockInventoryService) FreeSeatIndexes(ctx context.Context, segmentID, carriageID string) ([]int, error) {
	return nil, nil
}

func (m *mockInventoryService) SeatMap(ctx context.Context, segmentID, carriageID string) (*invservice.SeatMap, error) {
	return nil, nil
}

func (m *mockInventoryService) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

// Mock journey and train repositories

type mockJourneyRepository struct {
	findByIDFunc     func(ctx context.Context, id string) (*model.ConcreteJourney, error)
	findSegmentsFunc func(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error)
}

func (m *mockJourneyRepository) Create(ctx context.Context, journey *model.ConcreteJourney) error {
	return nil
}

func (m *mockJourneyRepository) CreateSegments(ctx context.Context, segments []*model.ConcreteSegment) error {
	return nil
}

func (m *mockJourneyRepository) FindByID(ctx context.Context, id string) (*model.ConcreteJourney, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockJourneyRepository) FindByTemplateAndDate(ctx context.Context, templateID string, date time.Time) (*model.ConcreteJourney, error) {
	return nil, nil
}

func (m *mockJourneyRepository) FindByDate(ctx context.Context, date time.Time) ([]*model.ConcreteJourney, error) {
	return nil, nil
}

func (m *mockJourneyRepository) FindSegments(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error) {
	if m.findSegmentsFunc != nil {
		return m.findSegmentsFunc(ctx, journeyID)
	}
	return nil, nil
}

func (m *mockJourneyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	sessCtx := mongo.NewSessionContext(ctx, nil)
	return fn(sessCtx)
}

type mockTrainRepository struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Train, error)
}

func (m *mockTrainRepository) FindByID(ctx context.Context, id string) (*model.Train, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

// Mock event publisher

type publishedEvent struct {
	eventType string
	key       string
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(ctx context.Context, eventType, key string, payload any) {
	m.events = append(m.events, publishedEvent{eventType: eventType, key: key})
}

func (m *mockPublisher) Close() error {
	return nil
}

// Fixtures

func testTrain() *model.Train {
	return &model.Train{
		ID:   testTrainID,
		Name: "IC 204",
		Type: "intercity",
		Carriages: []model.Carriage{
			{ID: "C1", TotalSeats: 40, PriceMultiplier: 1.5},
			{ID: "C2", TotalSeats: 60, PriceMultiplier: 1.0},
		},
	}
}

func testSegments() []*model.ConcreteSegment {
	departure := testNow.Add(2 * time.Hour)
	return []*model.ConcreteSegment{
		{
			ID: "seg1", JourneyID: testJourneyID, SegmentNumber: 1,
			FromStop: "Amsterdam", ToStop: "Utrecht",
			DepartureTime: departure, ArrivalTime: departure.Add(25 * time.Minute),
			SegmentCost: 1000,
		},
		{
			ID: "seg2", JourneyID: testJourneyID, SegmentNumber: 2,
			FromStop: "Utrecht", ToStop: "Arnhem",
			DepartureTime: departure.Add(30 * time.Minute), ArrivalTime: departure.Add(65 * time.Minute),
			SegmentCost: 2000,
		},
		{
			ID: "seg3", JourneyID: testJourneyID, SegmentNumber: 3,
			FromStop: "Arnhem", ToStop: "Nijmegen",
			DepartureTime: departure.Add(70 * time.Minute), ArrivalTime: departure.Add(90 * time.Minute),
			SegmentCost: 1500,
		},
	}
}

func testJourney() *model.ConcreteJourney {
	return &model.ConcreteJourney{
		ID:            testJourneyID,
		TemplateID:    "507f1f77bcf86cd799439020",
		TrainID:       testTrainID,
		DepartureDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestReservationService(
	holds *mockHoldRepository,
	tickets *mockTicketRepository,
	inventory *mockInventoryService,
	journeys *mockJourneyRepository,
	trains *mockTrainRepository,
	publisher *mockPublisher,
) *reservationService {
	cfg := testConfig()
	v := validator.NewHoldValidator(cfg.MaxSeatsPerHold, cfg.Log)
	svc := NewReservationService(holds, tickets, inventory, journeys, trains, v, publisher, cfg).(*reservationService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func defaultScheduleMocks() (*mockJourneyRepository, *mockTrainRepository) {
	journeys := &mockJourneyRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ConcreteJourney, error) {
			return testJourney(), nil
		},
		findSegmentsFunc: func(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error) {
			return testSegments(), nil
		},
	}
	trains := &mockTrainRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Train, error) {
			return testTrain(), nil
		},
	}
	return journeys, trains
}

func TestCreateHold_Success(t *testing.T) {
	holds := &mockHoldRepository{}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	publisher := &mockPublisher{}
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, publisher)

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C1", SeatIndex: 5, PassengerName: "Ada Lovelace"},
			{JourneyID: testJourneyID, StartSegment: 2, EndSegment: 3, CarriageID: "C2", SeatIndex: 12, PassengerName: "Alan Turing"},
		},
	}

	hold, err := svc.CreateHold(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateHold() failed: %v", err)
	}

	if hold.Status != model.HoldActive {
		t.Errorf("Expected status %q, got %q", model.HoldActive, hold.Status)
	}
	wantExpiry := testNow.Add(15 * time.Minute)
	if !hold.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("Expected expiry %v, got %v", wantExpiry, hold.ExpiresAt)
	}

	// Segments 1-2 cost 3000 at multiplier 1.5; segments 2-3 cost 3500 at 1.0.
	if hold.Seats[0].Price != 4500 {
		t.Errorf("Expected first seat price 4500, got %d", hold.Seats[0].Price)
	}
	if hold.Seats[1].Price != 3500 {
		t.Errorf("Expected second seat price 3500, got %d", hold.Seats[1].Price)
	}

	if len(inventory.flips) != 2 {
		t.Fatalf("Expected 2 seat flips, got %d", len(inventory.flips))
	}
	for _, flip := range inventory.flips {
		if !flip.toOccupied {
			t.Errorf("Expected flip to occupied, got release: %+v", flip)
		}
	}

	if holds.createdHold == nil {
		t.Fatal("Expected hold to be persisted")
	}
	if len(publisher.events) != 1 || publisher.events[0].eventType != "hold.created" {
		t.Errorf("Expected a single hold.created event, got %+v", publisher.events)
	}
}

func TestCreateHold_SeatTaken_NoSeatsFlipped(t *testing.T) {
	holds := &mockHoldRepository{}
	inventory := &mockInventoryService{
		isSpanAvailableFunc: func(journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error) {
			// Second seat is already occupied on one of its segments.
			return seatIndex != 12, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, &mockPublisher{})

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C1", SeatIndex: 5},
			{JourneyID: testJourneyID, StartSegment: 2, EndSegment: 3, CarriageID: "C1", SeatIndex: 12},
		},
	}

	_, err := svc.CreateHold(context.Background(), req)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict error, got %v", err)
	}

	// All availability checks run before the first flip, so a taken seat
	// must leave every bitmap untouched.
	if len(inventory.flips) != 0 {
		t.Errorf("Expected no flips on conflict, got %d", len(inventory.flips))
	}
	if holds.createdHold != nil {
		t.Error("Expected no hold to be persisted on conflict")
	}
}

func TestCreateHold_LostFlipRace_AbortsHold(t *testing.T) {
	holds := &mockHoldRepository{}
	inventory := &mockInventoryService{
		flipSpanFunc: func(call flipCall) (bool, error) {
			// A concurrent writer wins the compare-and-swap on the second seat.
			return call.seatIndex != 12, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, &mockPublisher{})

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 1, CarriageID: "C1", SeatIndex: 5},
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 1, CarriageID: "C1", SeatIndex: 12},
		},
	}

	_, err := svc.CreateHold(context.Background(), req)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict error, got %v", err)
	}
	if holds.createdHold != nil {
		t.Error("Expected no hold to be persisted when a flip loses its race")
	}
}

func TestCreateHold_DepartedSegment(t *testing.T) {
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(&mockHoldRepository{}, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})
	svc.now = func() time.Time { return testNow.Add(3 * time.Hour) }

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C1", SeatIndex: 5},
		},
	}

	_, err := svc.CreateHold(context.Background(), req)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict for departed segment, got %v", err)
	}
}

func TestCreateHold_UnknownCarriage(t *testing.T) {
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(&mockHoldRepository{}, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C9", SeatIndex: 5},
		},
	}

	_, err := svc.CreateHold(context.Background(), req)
	if !apperrors.IsNotFound(err) {
		t.Fatalf("Expected not found for unknown carriage, got %v", err)
	}
}

func TestCreateHold_SeatCapExceeded(t *testing.T) {
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(&mockHoldRepository{}, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	seats := make([]validator.SeatRequest, 11)
	for i := range seats {
		seats[i] = validator.SeatRequest{
			JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C2", SeatIndex: i,
		}
	}

	_, err := svc.CreateHold(context.Background(), &validator.CreateHoldRequest{CustomerID: "customer-7", Seats: seats})
	if err == nil || apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Fatalf("Expected validation error for seat cap, got %v", err)
	}
}

func TestBeginCommit_Success(t *testing.T) {
	holds := &mockHoldRepository{}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	ok, err := svc.BeginCommit(context.Background(), testHoldID)
	if err != nil {
		t.Fatalf("BeginCommit() failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected BeginCommit to win the transition")
	}

	if len(holds.statusCalls) != 1 {
		t.Fatalf("Expected one status transition, got %d", len(holds.statusCalls))
	}
	call := holds.statusCalls[0]
	if call.expected != model.HoldActive || call.next != model.HoldProcessing {
		t.Errorf("Expected active→processing transition, got %s→%s", call.expected, call.next)
	}
	if call.expiry == nil || !call.expiry.Equal(testNow.Add(2*time.Minute)) {
		t.Errorf("Expected processing deadline %v, got %v", testNow.Add(2*time.Minute), call.expiry)
	}
}

func TestBeginCommit_LostToSweeper(t *testing.T) {
	holds := &mockHoldRepository{
		updateStatusIfFunc: func(ctx context.Context, id, expected, next string, newExpiry *time.Time) (bool, error) {
			return false, nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return &model.ReservationHold{ID: id, Status: model.HoldExpired}, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	ok, err := svc.BeginCommit(context.Background(), testHoldID)
	if err != nil {
		t.Fatalf("Expected lost race to be a clean refusal, got error: %v", err)
	}
	if ok {
		t.Error("Expected BeginCommit to report false for a non-active hold")
	}
}

func processingHold() *model.ReservationHold {
	return &model.ReservationHold{
		ID:         testHoldID,
		CustomerID: "customer-7",
		Status:     model.HoldProcessing,
		Seats: []model.HeldSeat{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C1", SeatIndex: 5, PassengerName: "Ada Lovelace", Price: 4500},
			{JourneyID: testJourneyID, StartSegment: 3, EndSegment: 3, CarriageID: "C2", SeatIndex: 12, Price: 1500},
		},
		ExpiresAt: testNow.Add(2 * time.Minute),
	}
}

func TestCommit_Success(t *testing.T) {
	hold := processingHold()
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return hold, nil
		},
	}
	tickets := &mockTicketRepository{}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	publisher := &mockPublisher{}
	svc := newTestReservationService(holds, tickets, inventory, journeys, trains, publisher)

	ticketIDs, err := svc.Commit(context.Background(), testHoldID)
	if err != nil {
		t.Fatalf("Commit() failed: %v", err)
	}
	if len(ticketIDs) != 2 {
		t.Fatalf("Expected 2 ticket IDs, got %d", len(ticketIDs))
	}

	if len(tickets.createdTickets) != 2 {
		t.Fatalf("Expected 2 tickets created, got %d", len(tickets.createdTickets))
	}
	first := tickets.createdTickets[0]
	if first.Status != model.TicketPayed {
		t.Errorf("Expected ticket status %q, got %q", model.TicketPayed, first.Status)
	}
	if first.Price != 4500 {
		t.Errorf("Expected frozen price 4500, got %d", first.Price)
	}
	wantDeparture := testNow.Add(2 * time.Hour)
	if !first.DepartureTime.Equal(wantDeparture) {
		t.Errorf("Expected departure %v, got %v", wantDeparture, first.DepartureTime)
	}

	// Seats stay occupied across commit.
	if len(inventory.flips) != 0 {
		t.Errorf("Expected no bitmap changes during commit, got %d flips", len(inventory.flips))
	}

	last := holds.statusCalls[len(holds.statusCalls)-1]
	if last.expected != model.HoldProcessing || last.next != model.HoldCommitted {
		t.Errorf("Expected processing→committed transition, got %s→%s", last.expected, last.next)
	}
}

func TestCommit_NotProcessing(t *testing.T) {
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			h := processingHold()
			h.Status = model.HoldActive
			return h, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	_, err := svc.Commit(context.Background(), testHoldID)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict for non-processing hold, got %v", err)
	}
}

func TestCommit_TicketFailureRestoresHold(t *testing.T) {
	hold := processingHold()
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return hold, nil
		},
	}
	tickets := &mockTicketRepository{
		createManyFunc: func(ctx context.Context, ts []*model.Ticket) error {
			return errors.New("write concern timeout")
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, tickets, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	_, err := svc.Commit(context.Background(), testHoldID)
	if err == nil {
		t.Fatal("Expected commit to fail")
	}

	last := holds.statusCalls[len(holds.statusCalls)-1]
	if last.expected != model.HoldProcessing || last.next != model.HoldActive {
		t.Errorf("Expected processing→active restore, got %s→%s", last.expected, last.next)
	}
	if last.expiry == nil || !last.expiry.Equal(testNow.Add(15*time.Minute)) {
		t.Errorf("Expected restored hold to get a fresh TTL, got %v", last.expiry)
	}
}

func TestRollbackCommit_NotProcessing(t *testing.T) {
	holds := &mockHoldRepository{
		updateStatusIfFunc: func(ctx context.Context, id, expected, next string, newExpiry *time.Time) (bool, error) {
			return false, nil
		},
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return &model.ReservationHold{ID: id, Status: model.HoldActive}, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	err := svc.RollbackCommit(context.Background(), testHoldID)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict rolling back a non-processing hold, got %v", err)
	}
}

func TestCancelHold_ReleasesSeats(t *testing.T) {
	hold := processingHold()
	hold.Status = model.HoldActive
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return hold, nil
		},
	}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	publisher := &mockPublisher{}
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, publisher)

	if err := svc.CancelHold(context.Background(), testHoldID); err != nil {
		t.Fatalf("CancelHold() failed: %v", err)
	}

	if len(inventory.flips) != 2 {
		t.Fatalf("Expected 2 seat releases, got %d", len(inventory.flips))
	}
	for _, flip := range inventory.flips {
		if flip.toOccupied {
			t.Errorf("Expected release flip, got occupy: %+v", flip)
		}
	}
	if len(publisher.events) != 1 || publisher.events[0].eventType != "hold.cancelled" {
		t.Errorf("Expected a hold.cancelled event, got %+v", publisher.events)
	}
}

func TestCancelHold_ProcessingRefused(t *testing.T) {
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return processingHold(), nil
		},
		updateStatusIfFunc: func(ctx context.Context, id, expected, next string, newExpiry *time.Time) (bool, error) {
			return false, nil
		},
	}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, &mockPublisher{})

	err := svc.CancelHold(context.Background(), testHoldID)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict cancelling a processing hold, got %v", err)
	}
	if len(inventory.flips) != 0 {
		t.Errorf("Expected no seat releases for a refused cancel, got %d", len(inventory.flips))
	}
}

// Cancel-then-rehold: after a cancel releases a seat, a fresh hold on the
// same seat must succeed.
func TestCancelHold_ThenRehold(t *testing.T) {
	hold := processingHold()
	hold.Status = model.HoldActive
	hold.Seats = hold.Seats[:1]

	free := false
	holds := &mockHoldRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationHold, error) {
			return hold, nil
		},
	}
	inventory := &mockInventoryService{
		isSpanAvailableFunc: func(journeyID string, startSegment, endSegment int, carriageID string, seatIndex int) (bool, error) {
			return free, nil
		},
		flipSpanFunc: func(call flipCall) (bool, error) {
			free = !call.toOccupied
			return true, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(holds, &mockTicketRepository{}, inventory, journeys, trains, &mockPublisher{})

	if err := svc.CancelHold(context.Background(), testHoldID); err != nil {
		t.Fatalf("CancelHold() failed: %v", err)
	}

	req := &validator.CreateHoldRequest{
		CustomerID: "customer-8",
		Seats: []validator.SeatRequest{
			{JourneyID: testJourneyID, StartSegment: 1, EndSegment: 2, CarriageID: "C1", SeatIndex: 5},
		},
	}
	newHold, err := svc.CreateHold(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected rehold after cancel to succeed, got %v", err)
	}
	if newHold.Status != model.HoldActive {
		t.Errorf("Expected new hold to be active, got %q", newHold.Status)
	}
}

func payedTicket() *model.Ticket {
	return &model.Ticket{
		ID:            testTicketID,
		HoldID:        testHoldID,
		CustomerID:    "customer-7",
		JourneyID:     testJourneyID,
		StartSegment:  1,
		EndSegment:    2,
		CarriageID:    "C1",
		SeatIndex:     5,
		Price:         4500,
		DepartureTime: testNow.Add(2 * time.Hour),
		Status:        model.TicketPayed,
	}
}

func TestCancelTicket_ReleasesSeat(t *testing.T) {
	tickets := &mockTicketRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Ticket, error) {
			return payedTicket(), nil
		},
	}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	publisher := &mockPublisher{}
	svc := newTestReservationService(&mockHoldRepository{}, tickets, inventory, journeys, trains, publisher)

	if err := svc.CancelTicket(context.Background(), testTicketID); err != nil {
		t.Fatalf("CancelTicket() failed: %v", err)
	}

	if len(tickets.statusCalls) != 1 {
		t.Fatalf("Expected one ticket status transition, got %d", len(tickets.statusCalls))
	}
	call := tickets.statusCalls[0]
	if call.expected != model.TicketPayed || call.next != model.TicketCancelled {
		t.Errorf("Expected payed→cancelled transition, got %s→%s", call.expected, call.next)
	}

	if len(inventory.flips) != 1 {
		t.Fatalf("Expected 1 seat release, got %d", len(inventory.flips))
	}
	if inventory.flips[0].toOccupied {
		t.Error("Expected ticket cancel to release the seat")
	}
}

func TestCancelTicket_AfterDeparture(t *testing.T) {
	tickets := &mockTicketRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Ticket, error) {
			ticket := payedTicket()
			ticket.DepartureTime = testNow.Add(-time.Hour)
			return ticket, nil
		},
	}
	inventory := &mockInventoryService{}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(&mockHoldRepository{}, tickets, inventory, journeys, trains, &mockPublisher{})

	err := svc.CancelTicket(context.Background(), testTicketID)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict cancelling a departed ticket, got %v", err)
	}
	if len(inventory.flips) != 0 {
		t.Errorf("Expected no seat release for a departed ticket, got %d flips", len(inventory.flips))
	}
}

func TestCancelTicket_NotPayed(t *testing.T) {
	tickets := &mockTicketRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Ticket, error) {
			ticket := payedTicket()
			ticket.Status = model.TicketCancelled
			return ticket, nil
		},
	}
	journeys, trains := defaultScheduleMocks()
	svc := newTestReservationService(&mockHoldRepository{}, tickets, &mockInventoryService{}, journeys, trains, &mockPublisher{})

	err := svc.CancelTicket(context.Background(), testTicketID)
	if !apperrors.IsConflict(err) {
		t.Fatalf("Expected conflict cancelling a non-payed ticket, got %v", err)
	}
}
