package config

import "time"

// Weekday is the recurrence unit of a schedule template. Stored as the full
// English day name so template documents stay human-readable.
type Weekday string

const (
	Sunday    Weekday = "Sunday"
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
)

func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

func ContainsWeekday(days []Weekday, day Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
