package model

import "time"

// Ticket statuses. "payed" is the domain's historical spelling, kept so
// stored documents stay compatible with the rest of the booking estate.
const (
	TicketPayed     = "payed"
	TicketCancelled = "cancelled"
	TicketExpired   = "expired"
)

// Ticket is the committed form of one HeldSeat. DepartureTime is the
// departure of the ticket's first segment, denormalized so the retirement
// sweep is a single filtered bulk update.
type Ticket struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	HoldID        string    `json:"hold_id" bson:"hold_id" validate:"required,mongodb"`
	CustomerID    string    `json:"customer_id" bson:"customer_id" validate:"required,min=1,max=100"`
	JourneyID     string    `json:"journey_id" bson:"journey_id" validate:"required,mongodb"`
	StartSegment  int       `json:"start_segment" bson:"start_segment" validate:"required,min=1"`
	EndSegment    int       `json:"end_segment" bson:"end_segment" validate:"required,min=1,gtefield=StartSegment"`
	CarriageID    string    `json:"carriage_id" bson:"carriage_id" validate:"required"`
	SeatIndex     int       `json:"seat_index" bson:"seat_index" validate:"min=0,max=199"`
	PassengerName string    `json:"passenger_name,omitempty" bson:"passenger_name,omitempty"`
	Price         int64     `json:"price" bson:"price" validate:"omitempty,min=0"`
	DepartureTime time.Time `json:"departure_time" bson:"departure_time" validate:"required"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=payed cancelled expired"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
