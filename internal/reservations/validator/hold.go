package validator

import (
	"fmt"

	"railbook/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// SeatRequest is one requested seat claim: a seat index in a carriage over
// a contiguous segment span.
type SeatRequest struct {
	JourneyID     string `json:"journey_id" validate:"required,mongodb"`
	StartSegment  int    `json:"start_segment" validate:"required,min=1"`
	EndSegment    int    `json:"end_segment" validate:"required,min=1,gtefield=StartSegment"`
	CarriageID    string `json:"carriage_id" validate:"required,min=1,max=20"`
	SeatIndex     int    `json:"seat_index" validate:"min=0,max=199"`
	PassengerName string `json:"passenger_name,omitempty" validate:"omitempty,min=2,max=100"`
}

type CreateHoldRequest struct {
	CustomerID string        `json:"customer_id" validate:"required,min=1,max=100"`
	Seats      []SeatRequest `json:"seats" validate:"required,min=1,dive"`
}

type HoldValidator struct {
	validate        *validator.Validate
	maxSeatsPerHold int
	logger          *logger.Logger
}

func NewHoldValidator(maxSeatsPerHold int, log *logger.Logger) *HoldValidator {
	return &HoldValidator{
		validate:        validator.New(),
		maxSeatsPerHold: maxSeatsPerHold,
		logger:          log,
	}
}

func (v *HoldValidator) Validate(req *CreateHoldRequest) error {
	if req == nil {
		return fmt.Errorf("hold request cannot be nil")
	}
	// The seat cap bounds the size of the hold transaction; it is a hard
	// input constraint, not a soft limit.
	if len(req.Seats) > v.maxSeatsPerHold {
		return fmt.Errorf("a hold may claim at most %d seats, got %d", v.maxSeatsPerHold, len(req.Seats))
	}
	if err := v.validate.Struct(req); err != nil {
		return err
	}
	if err := v.checkDuplicateSeats(req); err != nil {
		return err
	}
	return nil
}

// checkDuplicateSeats rejects requests claiming the same physical seat with
// overlapping spans; such a request could never succeed and would otherwise
// conflict with itself mid-transaction.
func (v *HoldValidator) checkDuplicateSeats(req *CreateHoldRequest) error {
	for i := range req.Seats {
		for j := i + 1; j < len(req.Seats); j++ {
			a, b := &req.Seats[i], &req.Seats[j]
			if a.JourneyID != b.JourneyID || a.CarriageID != b.CarriageID || a.SeatIndex != b.SeatIndex {
				continue
			}
			if a.StartSegment <= b.EndSegment && b.StartSegment <= a.EndSegment {
				return fmt.Errorf("request claims seat %d in carriage %s twice over overlapping segments", a.SeatIndex, a.CarriageID)
			}
		}
	}
	return nil
}
