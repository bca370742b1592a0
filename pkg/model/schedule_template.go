package model

import (
	"time"

	"railbook/pkg/config"
)

// TemplateSegment is one abstract leg of a recurring route. Offsets are
// minutes past midnight of the journey date; an arrival offset past 1440
// lands on the following calendar day.
type TemplateSegment struct {
	SegmentNumber      int    `json:"segment_number" bson:"segment_number" validate:"required,min=1"`
	FromStop           string `json:"from_stop" bson:"from_stop" validate:"required,min=2,max=100"`
	ToStop             string `json:"to_stop" bson:"to_stop" validate:"required,min=2,max=100"`
	DepartureOffsetMin int    `json:"departure_offset_min" bson:"departure_offset_min" validate:"min=0,max=2880"`
	ArrivalOffsetMin   int    `json:"arrival_offset_min" bson:"arrival_offset_min" validate:"required,min=1,max=2880,gtfield=DepartureOffsetMin"`
	SegmentCost        int64  `json:"segment_cost" bson:"segment_cost" validate:"required,min=1"`
}

// ScheduleTemplate is the recurring definition of a train run. Templates are
// owned by external scheduling tooling; once journeys have been materialized
// from a template for a date, that date's expansion is never recomputed.
type ScheduleTemplate struct {
	ID         string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainID    string            `json:"train_id" bson:"train_id" validate:"required,mongodb"`
	Segments   []TemplateSegment `json:"segments" bson:"segments" validate:"required,min=1,max=50,dive"`
	ActiveDays []config.Weekday  `json:"active_days" bson:"active_days" validate:"required,min=1,max=7,dive,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	IsActive   bool              `json:"is_active" bson:"is_active"`
	CreatedAt  time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// RunsOn reports whether the template recurs on the given date's weekday.
func (t *ScheduleTemplate) RunsOn(date time.Time) bool {
	return config.ContainsWeekday(t.ActiveDays, config.WeekdayOf(date))
}
