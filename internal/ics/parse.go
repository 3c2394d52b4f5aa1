package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "randcal/internal/log"
)

// ParsedEvent is the flattened view of one generated VEVENT, used to read a
// calendar file back (round-trip checks, the inspect command).
type ParsedEvent struct {
	UID     string
	Summary string

	Start time.Time
	End   time.Time

	Status       string
	Transparency string

	// Reminder holds the first VALARM's action and raw TRIGGER, if any.
	ReminderAction  string
	ReminderTrigger string
}

// ParseEvents parses an ICS payload and returns its events ordered by
// start time.
//
// Floating DATE-TIME values are read in time.Local, matching how Encode
// writes them.
func ParseEvents(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics parse: %w", err)
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent parse failed", perr, "uid", comp.Id())
			continue
		}
		events = append(events, ev)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	out.UID = ve.Id()
	if out.UID == "" {
		return out, errors.New("missing UID")
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = ical.FromText(p.Value)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, fmt.Errorf("DTEND: %w", err)
	}
	out.Start = start
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		out.Transparency = p.Value
	}

	if alarms := ve.Alarms(); len(alarms) > 0 {
		if p := alarms[0].GetProperty(ical.ComponentPropertyAction); p != nil {
			out.ReminderAction = p.Value
		}
		if p := alarms[0].GetProperty(ical.ComponentPropertyTrigger); p != nil {
			out.ReminderTrigger = p.Value
		}
	}

	return out, nil
}
