package model

import "time"

// Hold status state machine. Transitions are monotonic with one exception:
// Processing rolls back to Active when the payment collaborator fails before
// any ticket exists. Committed, Cancelled and Expired are terminal.
const (
	HoldActive     = "active"
	HoldProcessing = "processing"
	HoldCommitted  = "committed"
	HoldCancelled  = "cancelled"
	HoldExpired    = "expired"
)

// HeldSeat is one seat claim inside a hold: a seat index in a carriage,
// occupied across the contiguous segment span [StartSegment, EndSegment].
// Price is frozen at hold time in minor currency units.
type HeldSeat struct {
	JourneyID     string `json:"journey_id" bson:"journey_id" validate:"required,mongodb"`
	StartSegment  int    `json:"start_segment" bson:"start_segment" validate:"required,min=1"`
	EndSegment    int    `json:"end_segment" bson:"end_segment" validate:"required,min=1,gtefield=StartSegment"`
	CarriageID    string `json:"carriage_id" bson:"carriage_id" validate:"required"`
	SeatIndex     int    `json:"seat_index" bson:"seat_index" validate:"min=0,max=199"`
	PassengerName string `json:"passenger_name,omitempty" bson:"passenger_name,omitempty" validate:"omitempty,min=2,max=100"`
	Price         int64  `json:"price" bson:"price" validate:"omitempty,min=0"`
}

// ReservationHold is a time-bounded, seat-occupying claim made before
// payment. The engine creates it in the same transaction as the occupancy
// flips it performs; terminal holds are retained for audit.
type ReservationHold struct {
	ID         string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CustomerID string     `json:"customer_id" bson:"customer_id" validate:"required,min=1,max=100"`
	Status     string     `json:"status" bson:"status" validate:"required,oneof=active processing committed cancelled expired"`
	Seats      []HeldSeat `json:"seats" bson:"seats" validate:"required,min=1,dive"`
	ExpiresAt  time.Time  `json:"expires_at" bson:"expires_at" validate:"required"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}
