package app

import (
	"context"
	"fmt"
	"time"

	"randcal/internal/config"
	"randcal/internal/ics"
	appLog "randcal/internal/log"
	"randcal/internal/metrics"
	"randcal/internal/model"
	"randcal/internal/schedule"
)

// RunOptions carries per-invocation overrides on top of the config.
type RunOptions struct {
	// Start overrides the config's start date when non-zero.
	Start time.Time

	// Seed drives every random choice. Zero picks a time-based seed, which
	// is logged so a run can be replayed.
	Seed uint64

	// OutputPath overrides the config's output path when non-empty.
	OutputPath string

	// Now is used for the default start date and DTSTAMP. Zero means
	// time.Now.
	Now time.Time
}

// Result summarizes a completed run.
type Result struct {
	OutputPath string
	Seed       uint64
	Schedules  []model.DaySchedule
	Events     int
}

// Run generates the calendar described by cfg and writes it once.
//
// It is the single failure boundary for a generation: configuration errors
// are returned before any planning, and nothing is written unless the
// whole calendar encoded successfully. Under-filled days are not errors.
func Run(ctx context.Context, cfg *config.Config, ro RunOptions) (Result, error) {
	if cfg == nil {
		return Result{}, fmt.Errorf("%w: config is nil", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	opts, err := cfg.ScheduleOptions()
	if err != nil {
		return Result{}, err
	}

	now := ro.Now
	if now.IsZero() {
		now = time.Now()
	}
	start := ro.Start
	if start.IsZero() {
		if start, err = cfg.Start(now); err != nil {
			return Result{}, err
		}
	}
	out := ro.OutputPath
	if out == "" {
		if out, err = cfg.ResolveOutputPath(); err != nil {
			return Result{}, err
		}
	}
	seed := ro.Seed
	if seed == 0 {
		seed = uint64(now.UnixNano())
	}

	appLog.Info("generation start",
		"start", start.Format(time.DateOnly),
		"days", cfg.Days,
		"seed", seed,
		"output", out,
	)

	planner, err := schedule.NewPlanner(opts, seed)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	schedules, err := planner.PlanRange(start, cfg.Days)
	if err != nil {
		return Result{}, fmt.Errorf("plan: %w", err)
	}

	rec := metrics.NewRecorder()
	total := 0
	for _, ds := range schedules {
		rec.ObserveDay(ds)
		for _, ev := range ds.Events {
			total++
			appLog.Info("event created",
				"subject", ev.Subject,
				"start", ev.Interval.Start.Format("2006-01-02 15:04"),
				"end", ev.Interval.End.Format("15:04"),
			)
		}
	}

	body, err := ics.Encode(schedules, ics.EncodeOptions{ProductID: cfg.ProductID, Stamp: now})
	if err != nil {
		return Result{}, fmt.Errorf("encode: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if err := ics.WriteFile(out, body); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", out, err)
	}

	rec.MarkCompleted()
	if cfg.MetricsTextfile != "" {
		if err := rec.WriteTextfile(cfg.MetricsTextfile); err != nil {
			// The calendar is already written; metrics are best effort.
			appLog.Error("metrics textfile write failed", err, "path", cfg.MetricsTextfile)
		}
	}

	appLog.Info("calendar file created", "path", out, "days", len(schedules), "events", total)

	return Result{
		OutputPath: out,
		Seed:       seed,
		Schedules:  schedules,
		Events:     total,
	}, nil
}
