package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidOptions is returned by Options.Validate for malformed
// generation settings. It is distinct from retry exhaustion, which is never
// an error.
var ErrInvalidOptions = errors.New("invalid generation options")

// Session is a half of the working day from which start hours are drawn.
// FirstHour and LastHour are both inclusive.
type Session struct {
	Name      string
	FirstHour int
	LastHour  int
}

// CountWeight is one entry of the daily event-count distribution.
type CountWeight struct {
	Count  int
	Weight int
}

// Options is the immutable configuration for one generation run.
type Options struct {
	// BusinessStart / BusinessEnd are minutes after local midnight.
	BusinessStart int
	BusinessEnd   int

	Sessions []Session

	// MinDuration / MaxDuration are in whole minutes, both inclusive.
	MinDuration int
	MaxDuration int

	// StartMinutes is the set of allowed minute offsets within a start hour.
	StartMinutes []int

	CountWeights []CountWeight

	// RetryBudget caps placement attempts per day.
	RetryBudget int

	ReminderLead time.Duration

	AnchorSubject string
	Subjects      []string
}

// DefaultSubjects is the pool used for non-anchor events.
var DefaultSubjects = []string{
	"Project Review", "Client Follow-Up", "Performance Update",
	"Strategic Planning", "Budget Discussion", "Sprint Retrospective",
	"Operational Review", "Priority Planning", "KPI Review",
	"Status Update", "Market Analysis", "Content Review",
	"Department Check-In", "Stakeholder Meeting", "Report Drafting",
	"Goal Setting", "Next Steps Planning", "Annual Planning",
	"Feedback Session", "Weekly Review", "Risk Management",
	"Results Presentation", "Roadmap Planning",
}

// DefaultOptions returns the stock 9:00-17:00 setup with 1-4 events per day.
func DefaultOptions() Options {
	return Options{
		BusinessStart: 9 * 60,
		BusinessEnd:   17 * 60,
		Sessions: []Session{
			{Name: "morning", FirstHour: 9, LastHour: 11},
			{Name: "afternoon", FirstHour: 13, LastHour: 16},
		},
		MinDuration:  30,
		MaxDuration:  90,
		StartMinutes: []int{0, 15, 30, 45},
		CountWeights: []CountWeight{
			{Count: 1, Weight: 10},
			{Count: 2, Weight: 45},
			{Count: 3, Weight: 25},
			{Count: 4, Weight: 20},
		},
		RetryBudget:   50,
		ReminderLead:  15 * time.Minute,
		AnchorSubject: "Focus Time",
		Subjects:      append([]string(nil), DefaultSubjects...),
	}
}

// Validate checks the options for shapes that could never produce a valid
// event or would make the planner misbehave.
func (o Options) Validate() error {
	if o.BusinessStart < 0 || o.BusinessEnd > 24*60 {
		return invalid("business hours must lie within one day")
	}
	if o.BusinessEnd <= o.BusinessStart {
		return invalid("business end %s must be after business start %s",
			FormatMinutes(o.BusinessEnd), FormatMinutes(o.BusinessStart))
	}
	if o.MinDuration <= 0 {
		return invalid("minimum duration must be positive, got %d", o.MinDuration)
	}
	if o.MaxDuration < o.MinDuration {
		return invalid("duration range inverted: min %d > max %d", o.MinDuration, o.MaxDuration)
	}
	if o.MinDuration > o.BusinessEnd-o.BusinessStart {
		return invalid("minimum duration %d does not fit in business hours", o.MinDuration)
	}
	if len(o.Sessions) == 0 {
		return invalid("at least one session is required")
	}
	for _, s := range o.Sessions {
		if s.LastHour < s.FirstHour {
			return invalid("session %q: last hour %d before first hour %d", s.Name, s.LastHour, s.FirstHour)
		}
		if s.FirstHour*60 < o.BusinessStart || s.LastHour*60 >= o.BusinessEnd {
			return invalid("session %q: hours %d-%d outside business hours", s.Name, s.FirstHour, s.LastHour)
		}
	}
	if len(o.StartMinutes) == 0 {
		return invalid("at least one start minute is required")
	}
	for _, m := range o.StartMinutes {
		if m < 0 || m > 59 {
			return invalid("start minute %d out of range 0-59", m)
		}
	}
	total := 0
	for _, cw := range o.CountWeights {
		if cw.Count <= 0 {
			return invalid("event count %d must be positive", cw.Count)
		}
		if cw.Weight < 0 {
			return invalid("weight for count %d is negative", cw.Count)
		}
		total += cw.Weight
	}
	if total == 0 {
		return invalid("count distribution has no positive weight")
	}
	if o.RetryBudget <= 0 {
		return invalid("retry budget must be positive, got %d", o.RetryBudget)
	}
	if o.ReminderLead < 0 {
		return invalid("reminder lead must not be negative")
	}
	if o.AnchorSubject == "" {
		return invalid("anchor subject is empty")
	}
	return nil
}

// subjectPool returns Subjects without the anchor subject, so the anchor
// stays unique within a day. Falls back to a generic name when nothing is
// left.
func (o Options) subjectPool() []string {
	pool := make([]string, 0, len(o.Subjects))
	for _, s := range o.Subjects {
		if s == "" || s == o.AnchorSubject {
			continue
		}
		pool = append(pool, s)
	}
	if len(pool) == 0 {
		pool = append(pool, "Meeting")
	}
	return pool
}

// FormatMinutes renders minutes after midnight as HH:MM.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))
}
