package schedule

import (
	"encoding/binary"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	appLog "randcal/internal/log"
	"randcal/internal/model"
)

// Planner places random, non-overlapping events into weekdays.
//
// Placement is bounded-retry random sampling, not an exhaustive slot search:
// each day gets at most RetryBudget attempts and may end with fewer events
// than it targeted. That under-fill is an expected outcome and shapes the
// distribution of generated calendars.
//
// A Planner is not safe for concurrent use.
type Planner struct {
	opts Options
	pool []string

	rnd *rand.Rand
	// ids feeds uuid generation from the same seeded stream as rnd.
	ids io.Reader

	totalWeight int
}

// NewPlanner validates opts and returns a Planner whose random choices (and
// event UIDs) are fully determined by seed.
func NewPlanner(opts Options, seed uint64) (*Planner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	src := rand.NewChaCha8(key)

	total := 0
	for _, cw := range opts.CountWeights {
		total += cw.Weight
	}

	return &Planner{
		opts:        opts,
		pool:        opts.subjectPool(),
		rnd:         rand.New(src),
		ids:         src,
		totalWeight: total,
	}, nil
}

// Options returns the planner's configuration.
func (p *Planner) Options() Options {
	return p.opts
}

// DrawCount draws a target event count from the weighted distribution.
// Weights are relative and need not sum to 100.
func (p *Planner) DrawCount() int {
	n := p.rnd.IntN(p.totalWeight)
	for _, cw := range p.opts.CountWeights {
		if n < cw.Weight {
			return cw.Count
		}
		n -= cw.Weight
	}
	// Unreachable with validated options.
	return p.opts.CountWeights[len(p.opts.CountWeights)-1].Count
}

// PlanDay plans the events for the calendar day containing date. Weekend
// days are skipped and reported with ok == false.
func (p *Planner) PlanDay(date time.Time) (model.DaySchedule, bool) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	if IsWeekend(day) {
		appLog.Debug("skipping weekend day", "day", day.Format(time.DateOnly))
		return model.DaySchedule{}, false
	}

	ds := model.DaySchedule{
		Date:        day,
		TargetCount: p.DrawCount(),
	}
	appLog.Info("generating events", "count", ds.TargetCount, "day", day.Format("Monday, January 02"))

	for len(ds.Events) < ds.TargetCount && ds.Attempts < p.opts.RetryBudget {
		ds.Attempts++

		candidate := p.propose(day)
		if !p.opts.Fits(day, candidate) {
			continue
		}
		if HasConflict(IntervalsOf(ds.Events), candidate) {
			continue
		}

		subject := p.opts.AnchorSubject
		if ds.AnchorPlaced {
			subject = p.pool[p.rnd.IntN(len(p.pool))]
		} else {
			ds.AnchorPlaced = true
		}

		ds.Events = append(ds.Events, model.ScheduledEvent{
			ID:             p.newID(),
			Subject:        subject,
			Interval:       candidate,
			ReminderOffset: p.opts.ReminderLead,
		})
	}

	if ds.Underfilled() {
		appLog.Info("retry budget exhausted; day under-filled",
			"day", day.Format(time.DateOnly),
			"target", ds.TargetCount,
			"placed", len(ds.Events),
			"attempts", ds.Attempts,
		)
	}

	return ds, true
}

// propose draws one random candidate interval on day.
func (p *Planner) propose(day time.Time) model.TimeInterval {
	s := p.opts.Sessions[p.rnd.IntN(len(p.opts.Sessions))]
	hour := s.FirstHour + p.rnd.IntN(s.LastHour-s.FirstHour+1)
	minute := p.opts.StartMinutes[p.rnd.IntN(len(p.opts.StartMinutes))]
	dur := p.opts.MinDuration + p.rnd.IntN(p.opts.MaxDuration-p.opts.MinDuration+1)

	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	return model.TimeInterval{
		Start: start,
		End:   start.Add(time.Duration(dur) * time.Minute),
	}
}

func (p *Planner) newID() string {
	id, err := uuid.NewRandomFromReader(p.ids)
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Fits reports whether iv lies inside business hours on day and its length
// is within the duration range. Ending exactly at business close fits.
func (o Options) Fits(day time.Time, iv model.TimeInterval) bool {
	open := time.Date(day.Year(), day.Month(), day.Day(), 0, o.BusinessStart, 0, 0, day.Location())
	closing := time.Date(day.Year(), day.Month(), day.Day(), 0, o.BusinessEnd, 0, 0, day.Location())

	if iv.Start.Before(open) || iv.End.After(closing) {
		return false
	}
	d := iv.Duration()
	return d >= time.Duration(o.MinDuration)*time.Minute &&
		d <= time.Duration(o.MaxDuration)*time.Minute
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
