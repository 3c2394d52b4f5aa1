package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"randcal/internal/ics"
	"randcal/internal/schedule"
)

// ErrInvalidConfig wraps every validation failure so callers can tell a bad
// config apart from an I/O error.
var ErrInvalidConfig = errors.New("invalid config")

// SessionConfig is one half of the working day from which start hours are
// drawn (both ends inclusive).
type SessionConfig struct {
	Name      string `yaml:"name" json:"name"`
	FirstHour int    `yaml:"first_hour" json:"first_hour"`
	LastHour  int    `yaml:"last_hour" json:"last_hour"`
}

// CountWeight is one entry of the daily event-count distribution.
type CountWeight struct {
	Count  int `yaml:"count" json:"count"`
	Weight int `yaml:"weight" json:"weight"`
}

// Config is the top-level application configuration.
type Config struct {
	// Days is the number of calendar days to cover. Weekends inside the
	// window are skipped, not replaced.
	Days int `yaml:"days" json:"days"`

	// StartDate is the first day (YYYY-MM-DD). Empty means today.
	StartDate string `yaml:"start_date" json:"start_date"`

	// BusinessStart / BusinessEnd are "HH:MM" wall-clock times.
	BusinessStart string `yaml:"business_start" json:"business_start"`
	BusinessEnd   string `yaml:"business_end" json:"business_end"`

	Sessions []SessionConfig `yaml:"sessions" json:"sessions"`

	MinDurationMinutes int `yaml:"min_duration_minutes" json:"min_duration_minutes"`
	MaxDurationMinutes int `yaml:"max_duration_minutes" json:"max_duration_minutes"`

	// StartMinutes lists the allowed minute offsets for event starts.
	StartMinutes []int `yaml:"start_minutes" json:"start_minutes"`

	CountWeights []CountWeight `yaml:"count_weights" json:"count_weights"`

	RetryBudget     int `yaml:"retry_budget" json:"retry_budget"`
	ReminderMinutes int `yaml:"reminder_minutes" json:"reminder_minutes"`

	AnchorSubject string   `yaml:"anchor_subject" json:"anchor_subject"`
	Subjects      []string `yaml:"subjects" json:"subjects"`

	// OutputPath is where the .ics file is written. Empty means
	// ~/Downloads/random_events.ics.
	OutputPath string `yaml:"output_path" json:"output_path"`

	ProductID string `yaml:"product_id" json:"product_id"`

	// Regenerate is a cron-style schedule (e.g. "0 6 * * 1") used by the
	// watch command.
	Regenerate string `yaml:"regenerate" json:"regenerate"`

	// MetricsTextfile, if set, receives run statistics in Prometheus text
	// format after every successful run.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty" json:"metrics_textfile,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	opts := schedule.DefaultOptions()

	sessions := make([]SessionConfig, 0, len(opts.Sessions))
	for _, s := range opts.Sessions {
		sessions = append(sessions, SessionConfig{Name: s.Name, FirstHour: s.FirstHour, LastHour: s.LastHour})
	}
	weights := make([]CountWeight, 0, len(opts.CountWeights))
	for _, cw := range opts.CountWeights {
		weights = append(weights, CountWeight{Count: cw.Count, Weight: cw.Weight})
	}

	return &Config{
		Days:               5,
		BusinessStart:      schedule.FormatMinutes(opts.BusinessStart),
		BusinessEnd:        schedule.FormatMinutes(opts.BusinessEnd),
		Sessions:           sessions,
		MinDurationMinutes: opts.MinDuration,
		MaxDurationMinutes: opts.MaxDuration,
		StartMinutes:       append([]int(nil), opts.StartMinutes...),
		CountWeights:       weights,
		RetryBudget:        opts.RetryBudget,
		ReminderMinutes:    int(opts.ReminderLead / time.Minute),
		AnchorSubject:      opts.AnchorSubject,
		Subjects:           append([]string(nil), opts.Subjects...),
		ProductID:          ics.DefaultProductID,
		Regenerate:         "0 6 * * 1",
		LogLevel:           "info",
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly. Values that are present
// but wrong are left for Validate to reject.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Days == 0 {
		c.Days = def.Days
	}
	if c.BusinessStart == "" {
		c.BusinessStart = def.BusinessStart
	}
	if c.BusinessEnd == "" {
		c.BusinessEnd = def.BusinessEnd
	}
	if c.Sessions == nil {
		c.Sessions = def.Sessions
	}
	if c.MinDurationMinutes == 0 && c.MaxDurationMinutes == 0 {
		c.MinDurationMinutes = def.MinDurationMinutes
		c.MaxDurationMinutes = def.MaxDurationMinutes
	}
	if c.StartMinutes == nil {
		c.StartMinutes = def.StartMinutes
	}
	if c.CountWeights == nil {
		c.CountWeights = def.CountWeights
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = def.RetryBudget
	}
	if c.AnchorSubject == "" {
		c.AnchorSubject = def.AnchorSubject
	}
	if c.Subjects == nil {
		c.Subjects = def.Subjects
	}
	if c.ProductID == "" {
		c.ProductID = def.ProductID
	}
	if c.Regenerate == "" {
		c.Regenerate = def.Regenerate
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate checks the whole config and returns an error wrapping
// ErrInvalidConfig on the first problem found.
func (c *Config) Validate() error {
	if c.Days <= 0 {
		return fmt.Errorf("%w: days must be positive, got %d", ErrInvalidConfig, c.Days)
	}
	if c.StartDate != "" {
		if _, err := c.Start(time.Now()); err != nil {
			return err
		}
	}
	if _, err := c.ScheduleOptions(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(c.Regenerate); err != nil {
		return fmt.Errorf("%w: regenerate %q: %v", ErrInvalidConfig, c.Regenerate, err)
	}
	return nil
}

// ScheduleOptions converts the config into validated planner options.
func (c *Config) ScheduleOptions() (schedule.Options, error) {
	start, err := parseClock(c.BusinessStart)
	if err != nil {
		return schedule.Options{}, fmt.Errorf("%w: business_start: %v", ErrInvalidConfig, err)
	}
	end, err := parseClock(c.BusinessEnd)
	if err != nil {
		return schedule.Options{}, fmt.Errorf("%w: business_end: %v", ErrInvalidConfig, err)
	}

	opts := schedule.Options{
		BusinessStart: start,
		BusinessEnd:   end,
		MinDuration:   c.MinDurationMinutes,
		MaxDuration:   c.MaxDurationMinutes,
		StartMinutes:  append([]int(nil), c.StartMinutes...),
		RetryBudget:   c.RetryBudget,
		ReminderLead:  time.Duration(c.ReminderMinutes) * time.Minute,
		AnchorSubject: c.AnchorSubject,
		Subjects:      append([]string(nil), c.Subjects...),
	}
	for _, s := range c.Sessions {
		opts.Sessions = append(opts.Sessions, schedule.Session{Name: s.Name, FirstHour: s.FirstHour, LastHour: s.LastHour})
	}
	for _, cw := range c.CountWeights {
		opts.CountWeights = append(opts.CountWeights, schedule.CountWeight{Count: cw.Count, Weight: cw.Weight})
	}

	if err := opts.Validate(); err != nil {
		return schedule.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return opts, nil
}

// Start resolves StartDate in time.Local, falling back to now's date when
// StartDate is empty.
func (c *Config) Start(now time.Time) (time.Time, error) {
	if c.StartDate == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(c.StartDate), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_date %q: %v", ErrInvalidConfig, c.StartDate, err)
	}
	return t, nil
}

// ResolveOutputPath returns OutputPath, or the default Downloads location.
func (c *Config) ResolveOutputPath() (string, error) {
	if c.OutputPath != "" {
		return c.OutputPath, nil
	}
	return ics.DefaultOutputPath()
}

// parseClock parses "HH:MM" into minutes after midnight. "24:00" is allowed
// as an end-of-day marker.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
//
// Load does not validate; callers run Validate before use.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".randcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
