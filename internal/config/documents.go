package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Keywords maps a task-type label to the phrases that trigger it.
type Keywords map[string][]string

// Schedule describes when polling passes run.
type Schedule struct {
	FixedTimes      []string `mapstructure:"fixed_times" json:"fixed_times"`             // daily HH:MM triggers
	IntervalMinutes int      `mapstructure:"interval_minutes" json:"interval_minutes"`   // recurring trigger period
	CatchUpMissed   bool     `mapstructure:"catch_up_missed" json:"catch_up_missed"`     // replay runs missed during downtime
	MaxCatchUpHours int      `mapstructure:"max_catch_up_hours" json:"max_catch_up_hours"` // how far back catch-up may reach
}

// IgnoreRules lists senders, domains and subject phrases to skip.
type IgnoreRules struct {
	Emails   []string `mapstructure:"emails" json:"emails"`
	Domains  []string `mapstructure:"domains" json:"domains"`
	Subjects []string `mapstructure:"subjects" json:"subjects"`
}

// Documents bundles the three on-disk configuration documents.
type Documents struct {
	Keywords Keywords
	Schedule Schedule
	Ignore   IgnoreRules
}

// Interval returns the recurring trigger period as a duration.
func (s Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// MaxLookback returns the catch-up window as a duration.
func (s Schedule) MaxLookback() time.Duration {
	return time.Duration(s.MaxCatchUpHours) * time.Hour
}

// Validate checks the schedule invariants. Duplicate fixed_times entries
// collapse to one trigger, keyed on the parsed clock value.
func (s *Schedule) Validate() error {
	if s.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", s.IntervalMinutes)
	}
	if s.MaxCatchUpHours < 0 {
		return fmt.Errorf("max_catch_up_hours must not be negative, got %d", s.MaxCatchUpHours)
	}
	seen := make(map[int]bool, len(s.FixedTimes))
	deduped := make([]string, 0, len(s.FixedTimes))
	for _, ft := range s.FixedTimes {
		clock, err := time.Parse("15:04", ft)
		if err != nil {
			return fmt.Errorf("fixed time %q is not a valid HH:MM value", ft)
		}
		minute := clock.Hour()*60 + clock.Minute()
		if seen[minute] {
			continue
		}
		seen[minute] = true
		deduped = append(deduped, ft)
	}
	s.FixedTimes = deduped
	return nil
}

// DefaultKeywords returns the built-in task-type taxonomy.
func DefaultKeywords() Keywords {
	return Keywords{
		"assignment": {"assignment", "homework", "hw", "project", "submit", "submission"},
		"exam":       {"exam", "test", "quiz", "midterm", "final", "assessment"},
		"deadline":   {"deadline", "due", "due date", "by", "until"},
		"meeting":    {"meeting", "class", "lecture", "seminar", "workshop"},
	}
}

// DefaultSchedule returns the built-in polling schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		FixedTimes:      []string{"09:00", "12:00", "15:00", "18:00", "21:00"},
		IntervalMinutes: 30,
		CatchUpMissed:   true,
		MaxCatchUpHours: 24,
	}
}

// DefaultIgnoreRules returns empty ignore rules.
func DefaultIgnoreRules() IgnoreRules {
	return IgnoreRules{
		Emails:   []string{},
		Domains:  []string{},
		Subjects: []string{},
	}
}

// LoadDocuments reads the three configuration documents from dir, creating
// any that are missing with their defaults. Existing files are loaded as-is.
func LoadDocuments(dir string) (*Documents, error) {
	kw, err := LoadKeywords(filepath.Join(dir, "keywords.json"))
	if err != nil {
		return nil, err
	}

	sched, err := LoadSchedule(filepath.Join(dir, "schedule.json"))
	if err != nil {
		return nil, err
	}
	if err := sched.Validate(); err != nil {
		return nil, fmt.Errorf("schedule.json: %w", err)
	}

	ign, err := LoadIgnoreRules(filepath.Join(dir, "ignore_list.json"))
	if err != nil {
		return nil, err
	}

	return &Documents{Keywords: kw, Schedule: sched, Ignore: ign}, nil
}

// LoadKeywords reads the keyword taxonomy from a JSON file using Viper.
// If the file does not exist, the defaults are written there and returned.
func LoadKeywords(path string) (Keywords, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if isNotExist(err) {
			def := DefaultKeywords()
			settings := make(map[string]any, len(def))
			for label, words := range def {
				settings[label] = words
			}
			if err := saveDocument(path, settings); err != nil {
				return nil, err
			}
			return def, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	kw := Keywords{}
	if err := v.Unmarshal(&kw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return kw, nil
}

// LoadSchedule reads the polling schedule from a JSON file using Viper.
// If the file does not exist, the defaults are written there and returned.
func LoadSchedule(path string) (Schedule, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if isNotExist(err) {
			def := DefaultSchedule()
			settings := map[string]any{
				"fixed_times":        def.FixedTimes,
				"interval_minutes":   def.IntervalMinutes,
				"catch_up_missed":    def.CatchUpMissed,
				"max_catch_up_hours": def.MaxCatchUpHours,
			}
			if err := saveDocument(path, settings); err != nil {
				return Schedule{}, err
			}
			return def, nil
		}
		return Schedule{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var sched Schedule
	if err := v.Unmarshal(&sched); err != nil {
		return Schedule{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sched, nil
}

// LoadIgnoreRules reads the ignore rules from a JSON file using Viper.
// If the file does not exist, empty rules are written there and returned.
func LoadIgnoreRules(path string) (IgnoreRules, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		if isNotExist(err) {
			def := DefaultIgnoreRules()
			settings := map[string]any{
				"emails":   def.Emails,
				"domains":  def.Domains,
				"subjects": def.Subjects,
			}
			if err := saveDocument(path, settings); err != nil {
				return IgnoreRules{}, err
			}
			return def, nil
		}
		return IgnoreRules{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var ign IgnoreRules
	if err := v.Unmarshal(&ign); err != nil {
		return IgnoreRules{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ign, nil
}

// saveDocument writes settings to a JSON file at path, creating parent
// directories if needed.
func saveDocument(path string, settings map[string]any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	for key, val := range settings {
		v.Set(key, val)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

func isNotExist(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	if _, ok := err.(*os.PathError); ok {
		return true
	}
	return false
}
