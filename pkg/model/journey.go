package model

import "time"

// ConcreteJourney is a single dated instantiation of a schedule template.
// Created exactly once per (template, date) by the materializer and never
// mutated afterwards; a unique index on (template_id, departure_date) backs
// the exactly-once guarantee.
type ConcreteJourney struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TemplateID    string    `json:"template_id" bson:"template_id" validate:"required,mongodb"`
	TrainID       string    `json:"train_id" bson:"train_id" validate:"required,mongodb"`
	DepartureDate time.Time `json:"departure_date" bson:"departure_date" validate:"required"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ConcreteSegment carries the absolute times of one leg of a journey.
type ConcreteSegment struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	JourneyID     string    `json:"journey_id" bson:"journey_id" validate:"required,mongodb"`
	SegmentNumber int       `json:"segment_number" bson:"segment_number" validate:"required,min=1"`
	FromStop      string    `json:"from_stop" bson:"from_stop" validate:"required"`
	ToStop        string    `json:"to_stop" bson:"to_stop" validate:"required"`
	DepartureTime time.Time `json:"departure_time" bson:"departure_time" validate:"required"`
	ArrivalTime   time.Time `json:"arrival_time" bson:"arrival_time" validate:"required,gtfield=DepartureTime"`
	SegmentCost   int64     `json:"segment_cost" bson:"segment_cost" validate:"required,min=1"`
}
