package model

import "time"

// TimeInterval is a half-open [Start, End) block of wall-clock time.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (t TimeInterval) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Overlaps reports whether two intervals share any time. Intervals that only
// touch (one ends exactly when the other starts) do not overlap.
func (t TimeInterval) Overlaps(o TimeInterval) bool {
	return t.Start.Before(o.End) && t.End.After(o.Start)
}

// ScheduledEvent is a single accepted calendar block. It is never modified
// after the planner appends it to a DaySchedule.
type ScheduledEvent struct {
	// ID is the iCalendar UID (a UUID string).
	ID string

	Subject  string
	Interval TimeInterval

	// ReminderOffset is how long before Start the display alarm fires.
	ReminderOffset time.Duration
}

// DaySchedule holds the events planned for one weekday.
type DaySchedule struct {
	// Date is local midnight of the planned day.
	Date time.Time

	// Events are kept in acceptance order, not sorted by start time. The
	// first entry is always the anchor event.
	Events []ScheduledEvent

	TargetCount  int
	AnchorPlaced bool

	// Attempts is the number of placement attempts consumed.
	Attempts int
}

// Underfilled reports whether the retry budget ran out before TargetCount
// events were placed.
func (d DaySchedule) Underfilled() bool {
	return len(d.Events) < d.TargetCount
}
