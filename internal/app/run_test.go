package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randcal/internal/config"
	"randcal/internal/ics"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), ics.DefaultFilename)
	return cfg
}

func TestRunFiveDaysFromMonday(t *testing.T) {
	cfg := testConfig(t)
	cfg.StartDate = "2026-03-02"
	cfg.MetricsTextfile = filepath.Join(t.TempDir(), "randcal.prom")

	res, err := Run(context.Background(), cfg, RunOptions{Seed: 12345})
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), res.Seed)
	assert.Equal(t, cfg.OutputPath, res.OutputPath)

	body, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	parsed, err := ics.ParseEvents(body)
	require.NoError(t, err)
	require.Len(t, parsed, res.Events)

	byDay := map[string][]ics.ParsedEvent{}
	for _, ev := range parsed {
		day := ev.Start.Format(time.DateOnly)
		byDay[day] = append(byDay[day], ev)

		wd := ev.Start.Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)

		closing := time.Date(ev.Start.Year(), ev.Start.Month(), ev.Start.Day(), 17, 0, 0, 0, ev.Start.Location())
		assert.False(t, ev.End.After(closing), "event %q ends at %s", ev.Summary, ev.End)

		assert.Equal(t, "CONFIRMED", ev.Status)
		assert.Equal(t, "OPAQUE", ev.Transparency)
		assert.Equal(t, "-PT15M", ev.ReminderTrigger)
	}
	assert.Len(t, byDay, 5)

	for _, events := range byDay {
		assert.GreaterOrEqual(t, len(events), 1)
		assert.LessOrEqual(t, len(events), 4)

		anchors := 0
		for i, a := range events {
			if a.Summary == "Focus Time" {
				anchors++
			}
			for j, b := range events {
				if i != j {
					assert.False(t, a.Start.Before(b.End) && a.End.After(b.Start), "%q overlaps %q", a.Summary, b.Summary)
				}
			}
		}
		assert.Equal(t, 1, anchors)
	}

	// Acceptance order: the first event of each planned day is the anchor.
	require.Len(t, res.Schedules, 5)
	for _, ds := range res.Schedules {
		assert.Equal(t, "Focus Time", ds.Events[0].Subject)
	}

	prom, err := os.ReadFile(cfg.MetricsTextfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "randcal_days_planned_total 5")
}

func TestRunIsReproducibleForSeed(t *testing.T) {
	now := time.Date(2026, 3, 2, 7, 0, 0, 0, time.Local)

	cfgA := testConfig(t)
	cfgB := testConfig(t)

	_, err := Run(context.Background(), cfgA, RunOptions{Seed: 7, Now: now})
	require.NoError(t, err)
	_, err = Run(context.Background(), cfgB, RunOptions{Seed: 7, Now: now})
	require.NoError(t, err)

	a, err := os.ReadFile(cfgA.OutputPath)
	require.NoError(t, err)
	b, err := os.ReadFile(cfgB.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRunWeekendOnlyWindowWritesEmptyCalendar(t *testing.T) {
	cfg := testConfig(t)
	cfg.Days = 2

	saturday := time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local)
	res, err := Run(context.Background(), cfg, RunOptions{Start: saturday, Seed: 1})
	require.NoError(t, err)

	assert.Empty(t, res.Schedules)
	assert.Zero(t, res.Events)

	body, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(body), "BEGIN:VCALENDAR")
}

func TestRunRejectsInvalidConfigBeforeWriting(t *testing.T) {
	cfg := testConfig(t)
	cfg.MinDurationMinutes, cfg.MaxDurationMinutes = 90, 30

	_, err := Run(context.Background(), cfg, RunOptions{Seed: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunSurfacesWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	cfg := config.DefaultConfig()
	cfg.OutputPath = filepath.Join(blocker, ics.DefaultFilename)

	_, err := Run(context.Background(), cfg, RunOptions{Seed: 1})
	require.Error(t, err)
	assert.NotErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunHonorsCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, RunOptions{Seed: 1})
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(cfg.OutputPath)
	assert.True(t, os.IsNotExist(statErr))
}
