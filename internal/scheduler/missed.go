package scheduler

import (
	"sort"
	"time"

	"inbox2notion/internal/config"
)

// MissedRuns returns the trigger instants strictly between lastRun and now
// that never executed, bounded by the schedule's catch-up window. The result
// is ascending and duplicate-free; catch-up disabled yields nothing.
func MissedRuns(sched config.Schedule, lastRun, now time.Time) []time.Time {
	if !sched.CatchUpMissed || !lastRun.Before(now) {
		return nil
	}

	// Runs older than the lookback are gone for good
	floor := lastRun
	if cutoff := now.Add(-sched.MaxLookback()); cutoff.After(floor) {
		floor = cutoff
	}

	missed := missedFixed(sched.FixedTimes, floor, now)
	missed = append(missed, missedInterval(sched.Interval(), floor, now)...)

	sort.Slice(missed, func(i, j int) bool { return missed[i].Before(missed[j]) })
	return dedupe(missed)
}

// missedFixed walks every candidate day from the floor to today and collects
// each daily time that fell inside the window
func missedFixed(times []string, floor, now time.Time) []time.Time {
	var missed []time.Time
	start := startOfDay(floor.In(now.Location()))

	for _, ft := range times {
		clock, err := time.Parse("15:04", ft)
		if err != nil {
			continue
		}

		for day := start; !day.After(now); day = day.AddDate(0, 0, 1) {
			scheduled := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
			if scheduled.After(floor) && scheduled.Before(now) {
				missed = append(missed, scheduled)
			}
		}
	}
	return missed
}

// missedInterval steps from the floor by the interval, collecting every
// instant before now
func missedInterval(interval time.Duration, floor, now time.Time) []time.Time {
	if interval <= 0 {
		return nil
	}

	var missed []time.Time
	for t := floor.Add(interval); t.Before(now); t = t.Add(interval) {
		missed = append(missed, t)
	}
	return missed
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dedupe drops equal neighbors from a sorted slice
func dedupe(times []time.Time) []time.Time {
	var out []time.Time
	for _, t := range times {
		if len(out) > 0 && out[len(out)-1].Equal(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
