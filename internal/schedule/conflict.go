package schedule

import "randcal/internal/model"

// HasConflict reports whether candidate overlaps any of the existing
// intervals. Touching intervals are not conflicts.
func HasConflict(existing []model.TimeInterval, candidate model.TimeInterval) bool {
	for _, iv := range existing {
		if candidate.Overlaps(iv) {
			return true
		}
	}
	return false
}

// IntervalsOf returns the intervals of events in the same order.
func IntervalsOf(events []model.ScheduledEvent) []model.TimeInterval {
	out := make([]model.TimeInterval, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Interval)
	}
	return out
}
