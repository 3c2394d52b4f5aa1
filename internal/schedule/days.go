package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"randcal/internal/model"
)

// Days returns count consecutive calendar days starting at the local
// midnight of start. Weekends are included; callers filter them.
func Days(start time.Time, count int) ([]time.Time, error) {
	if count <= 0 {
		return nil, errors.New("days: count must be positive")
	}
	dtstart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   count,
		Dtstart: dtstart,
	})
	if err != nil {
		return nil, fmt.Errorf("days: build rule: %w", err)
	}
	return r.All(), nil
}

// PlanRange plans count calendar days from start, strictly in order.
// Weekend days produce no schedule, so the result may hold fewer than count
// entries; the window is not extended to make up for them.
func (p *Planner) PlanRange(start time.Time, count int) ([]model.DaySchedule, error) {
	days, err := Days(start, count)
	if err != nil {
		return nil, err
	}

	out := make([]model.DaySchedule, 0, len(days))
	for _, d := range days {
		ds, ok := p.PlanDay(d)
		if !ok {
			continue
		}
		out = append(out, ds)
	}
	return out, nil
}
