package validator

import (
	"testing"

	"railbook/pkg/logger"
)

const validJourneyID = "507f1f77bcf86cd799439011"

func newTestValidator() *HoldValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewHoldValidator(10, log)
}

func validRequest() *CreateHoldRequest {
	return &CreateHoldRequest{
		CustomerID: "customer-7",
		Seats: []SeatRequest{
			{JourneyID: validJourneyID, StartSegment: 1, EndSegment: 3, CarriageID: "C1", SeatIndex: 5, PassengerName: "Ada Lovelace"},
		},
	}
}

func TestValidate_ValidRequest(t *testing.T) {
	if err := newTestValidator().Validate(validRequest()); err != nil {
		t.Fatalf("Expected valid request to pass, got %v", err)
	}
}

func TestValidate_NilRequest(t *testing.T) {
	if err := newTestValidator().Validate(nil); err == nil {
		t.Fatal("Expected nil request to fail")
	}
}

func TestValidate_MissingCustomer(t *testing.T) {
	req := validRequest()
	req.CustomerID = ""
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected missing customer ID to fail")
	}
}

func TestValidate_NoSeats(t *testing.T) {
	req := validRequest()
	req.Seats = nil
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected empty seat list to fail")
	}
}

func TestValidate_SeatCap(t *testing.T) {
	req := validRequest()
	for i := 0; i < 10; i++ {
		seat := req.Seats[0]
		seat.SeatIndex = i + 10
		req.Seats = append(req.Seats, seat)
	}
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected request above the seat cap to fail")
	}
}

func TestValidate_InvalidJourneyID(t *testing.T) {
	req := validRequest()
	req.Seats[0].JourneyID = "not-an-object-id"
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected malformed journey ID to fail")
	}
}

func TestValidate_SpanReversed(t *testing.T) {
	req := validRequest()
	req.Seats[0].StartSegment = 3
	req.Seats[0].EndSegment = 1
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected end segment before start segment to fail")
	}
}

func TestValidate_DuplicateSeatOverlappingSpans(t *testing.T) {
	req := validRequest()
	req.Seats = append(req.Seats, SeatRequest{
		JourneyID: validJourneyID, StartSegment: 2, EndSegment: 4, CarriageID: "C1", SeatIndex: 5,
	})
	if err := newTestValidator().Validate(req); err == nil {
		t.Fatal("Expected overlapping claims on the same seat to fail")
	}
}

// The same physical seat over disjoint spans is a legitimate request: two
// passengers sharing a seat for different legs of the journey.
func TestValidate_SameSeatDisjointSpans(t *testing.T) {
	req := validRequest()
	req.Seats[0].EndSegment = 2
	req.Seats = append(req.Seats, SeatRequest{
		JourneyID: validJourneyID, StartSegment: 3, EndSegment: 4, CarriageID: "C1", SeatIndex: 5, PassengerName: "Alan Turing",
	})
	if err := newTestValidator().Validate(req); err != nil {
		t.Fatalf("Expected disjoint spans on the same seat to pass, got %v", err)
	}
}

func TestValidate_SameSeatIndexDifferentCarriage(t *testing.T) {
	req := validRequest()
	req.Seats = append(req.Seats, SeatRequest{
		JourneyID: validJourneyID, StartSegment: 1, EndSegment: 3, CarriageID: "C2", SeatIndex: 5,
	})
	if err := newTestValidator().Validate(req); err != nil {
		t.Fatalf("Expected same index in another carriage to pass, got %v", err)
	}
}
