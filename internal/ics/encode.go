package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"randcal/internal/model"
)

// floatingLayout writes DATE-TIME values without a zone suffix, so the
// calendar client shows them at the same wall-clock time.
const floatingLayout = "20060102T150405"

// DefaultProductID is written as the calendar PRODID when none is given.
const DefaultProductID = "-//Random Calendar Generator//example.com//"

// EncodeOptions controls calendar-level properties.
type EncodeOptions struct {
	ProductID string

	// Stamp is written as DTSTAMP on every event. If zero, time.Now is used.
	Stamp time.Time
}

// Encode serializes the given day schedules into a single VCALENDAR.
//
// Each event becomes a VEVENT carrying:
//   - UID, DTSTAMP, SUMMARY, floating DTSTART/DTEND
//   - STATUS:CONFIRMED and TRANSP:OPAQUE (busy)
//   - a DISPLAY VALARM triggered ReminderOffset before start
//
// The whole calendar is built in memory; nothing is written here.
func Encode(schedules []model.DaySchedule, opts EncodeOptions) ([]byte, error) {
	if opts.ProductID == "" {
		opts.ProductID = DefaultProductID
	}
	if opts.Stamp.IsZero() {
		opts.Stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetVersion("2.0")

	for _, ds := range schedules {
		for _, ev := range ds.Events {
			if ev.ID == "" {
				return nil, errors.New("encode: event has empty ID")
			}
			if !ev.Interval.Start.Before(ev.Interval.End) {
				return nil, fmt.Errorf("encode: event %s has non-positive duration", ev.ID)
			}

			ve := cal.AddEvent(ev.ID)
			ve.SetDtStampTime(opts.Stamp)
			ve.SetSummary(ev.Subject)
			ve.SetProperty(ical.ComponentPropertyDtStart, ev.Interval.Start.Format(floatingLayout))
			ve.SetProperty(ical.ComponentPropertyDtEnd, ev.Interval.End.Format(floatingLayout))
			ve.SetStatus(ical.ObjectStatusConfirmed)
			ve.SetTimeTransparency(ical.TransparencyOpaque)

			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(reminderTrigger(ev.ReminderOffset))
			alarm.SetProperty(ical.ComponentPropertyDescription, ev.Subject)
		}
	}

	return []byte(cal.Serialize()), nil
}

// reminderTrigger renders a negative RFC 5545 duration, e.g. -PT15M.
func reminderTrigger(lead time.Duration) string {
	mins := int(lead / time.Minute)
	if mins <= 0 {
		return "PT0M"
	}
	return fmt.Sprintf("-PT%dM", mins)
}
