package rules

import (
	"math"

	"github.com/warp/hours-engine/clock"
)

// CodeStatutory identifies the base statutory rule.
const CodeStatutory = "CLT_STANDARD"

// Statutory night window and heuristics.
const (
	nightStartHour = 22
	nightEndHour   = 5

	// partialNightWeight is the weight given to an interval with only one
	// endpoint inside the night window. This approximation is load-bearing:
	// downstream payroll depends on its exact output, so it stays a fixed
	// constant rather than becoming configurable.
	partialNightWeight = 0.5

	// weeklyRestRatio converts overtime into weekly-rest pay when the
	// config enables it: one paid rest day per six working days.
	weeklyRestRatio = 1.0 / 6.0
)

// Statutory is the default statutory rule. Always applicable; the engine
// uses it as the fallback of last resort.
type Statutory struct{}

func (Statutory) Code() string { return CodeStatutory }

func (Statutory) CanApply(clock.Record, clock.Config) bool { return true }

func (s Statutory) Calculate(rec clock.Record, cfg clock.Config) clock.Result {
	cfg = cfg.WithDefaults()

	worked := workedHours(rec)
	regular := math.Min(worked, cfg.StandardHoursPerDay)
	extra := math.Max(0, worked-cfg.StandardHoursPerDay)
	night := nightHours(rec)

	// Holiday hours are a parallel classification, not a deduction from the
	// regular/extra split.
	var holiday float64
	if rec.Holiday {
		holiday = worked
	}

	var weeklyRest float64
	if cfg.WeeklyRestOnExtra {
		weeklyRest = extra * weeklyRestRatio
	}

	return clock.Result{
		TotalHours:      worked,
		ExtraHours:      extra,
		NightHours:      night,
		HolidayHours:    holiday,
		WeeklyRestHours: weeklyRest,
		AppliedRules:    []string{CodeStatutory},
		Breakdown: []clock.DayBreakdown{{
			Date:         rec.Date,
			RegularHours: regular,
			ExtraHours:   extra,
			NightHours:   night,
			HolidayHours: holiday,
		}},
	}
}

// workedHours sums the length of every complete interval. Incomplete
// intervals contribute zero.
func workedHours(rec clock.Record) float64 {
	var total float64
	for _, p := range rec.Punches {
		total += punchHours(p)
	}
	return total
}

// punchHours returns the interval length, treating a wall-clock exit before
// entry as an overnight shift crossing midnight.
func punchHours(p clock.Punch) float64 {
	if !p.Complete() {
		return 0
	}
	h := p.Exit.Sub(*p.Entry).Minutes() / 60
	if h < 0 {
		h += 24
	}
	return h
}

// nightHours counts hours inside the statutory night window [22:00, 05:00).
// An interval fully inside the window (or crossing midnight) counts in
// full; one with only one endpoint in the window counts at half weight.
func nightHours(rec clock.Record) float64 {
	var night float64
	for _, p := range rec.Punches {
		if !p.Complete() {
			continue
		}
		entryHour := p.Entry.Hour()
		exitHour := p.Exit.Hour()

		switch {
		case exitHour < entryHour || (entryHour >= nightStartHour && exitHour <= nightEndHour):
			night += punchHours(p)
		case entryHour >= nightStartHour || exitHour <= nightEndHour:
			night += punchHours(p) * partialNightWeight
		}
	}
	return night
}
