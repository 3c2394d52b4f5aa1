package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"randcal/internal/schedule"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.ScheduleOptions()
	require.NoError(t, err)
	assert.Equal(t, schedule.DefaultOptions(), opts)
}

func TestValidateRejectsMalformedConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative days", mutate: func(c *Config) { c.Days = -1 }},
		{name: "inverted durations", mutate: func(c *Config) { c.MinDurationMinutes, c.MaxDurationMinutes = 60, 45 }},
		{name: "empty business window", mutate: func(c *Config) { c.BusinessEnd = c.BusinessStart }},
		{name: "unparsable business start", mutate: func(c *Config) { c.BusinessStart = "nine" }},
		{name: "out of range business end", mutate: func(c *Config) { c.BusinessEnd = "25:00" }},
		{name: "bad start date", mutate: func(c *Config) { c.StartDate = "03/02/2026" }},
		{name: "bad cron", mutate: func(c *Config) { c.Regenerate = "every monday" }},
		{name: "no weights", mutate: func(c *Config) { c.CountWeights = []CountWeight{} }},
		{name: "negative reminder", mutate: func(c *Config) { c.ReminderMinutes = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "17:30", want: 1050},
		{in: " 8:05 ", want: 485},
		{in: "24:00", want: 1440},
		{in: "24:01", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseClock(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStart(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 4, 5, 0, time.Local)

	cfg := DefaultConfig()
	got, err := cfg.Start(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local), got)

	cfg.StartDate = "2026-03-02"
	got, err = cfg.Start(now)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, 2, got.Day())
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "randcal.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "randcal.yaml")
	body := "days: 10\nbusiness_end: \"18:00\"\nsubjects: [\"Standup\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Days)
	assert.Equal(t, "09:00", cfg.BusinessStart)
	assert.Equal(t, "18:00", cfg.BusinessEnd)
	assert.Equal(t, []string{"Standup"}, cfg.Subjects)
	assert.Equal(t, 50, cfg.RetryBudget)
	assert.Len(t, cfg.CountWeights, 4)
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "randcal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestResolveOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputPath = "/tmp/out.ics"

	got, err := cfg.ResolveOutputPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out.ics", got)
}
