package model

import "time"

// SeatInventory tracks occupancy for one (segment, carriage) pair as a
// bit-vector where 1 = free and 0 = occupied (see pkg/bitmap). The journey id
// and segment number are denormalized so a passenger span resolves to a
// single range query on (journey_id, carriage_id, segment_number).
type SeatInventory struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	JourneyID     string    `json:"journey_id" bson:"journey_id" validate:"required,mongodb"`
	SegmentID     string    `json:"segment_id" bson:"segment_id" validate:"required,mongodb"`
	SegmentNumber int       `json:"segment_number" bson:"segment_number" validate:"required,min=1"`
	CarriageID    string    `json:"carriage_id" bson:"carriage_id" validate:"required"`
	TotalSeats    int       `json:"total_seats" bson:"total_seats" validate:"required,min=1,max=200"`
	Occupancy     []byte    `json:"occupancy" bson:"occupancy" validate:"required"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
