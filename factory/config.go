/*
Package factory provides JSON to Go rule-configuration conversion.

PURPOSE:
  Rule configurations are administered as JSON - HR adjusts policy values
  without code changes, the admin UI stores them, and simulation requests
  carry them inline. This package converts that JSON into a clock.Config
  with statutory defaults filled in.

JSON SCHEMA:
  {
    "standardHoursPerDay": 8,
    "standardHoursPerWeek": 44,
    "extraHourMultiplier": 1.5,
    "nightHourMultiplier": 1.2,
    "holidayMultiplier": 2.0,
    "maxExtraHoursPerDay": 2,
    "dsrOnExtraHours": true,
    "lunchBreakDuration": 60,
    "minimumIntervalBetweenJourneys": 11,
    "cctRules": { "extraHourMultiplier": 1.7 }
  }

  All fields are optional; absent numbers fall back to the statutory
  defaults. A non-empty cctRules map is what activates the bargaining
  strategy.

SEE ALSO:
  - clock.Config: the target type and its defaults
  - rules: consumes the config
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/hours-engine/clock"
)

// configJSON mirrors the stored JSON shape, with the original field names
// kept for compatibility with existing stored configurations.
type configJSON struct {
	StandardHoursPerDay  float64 `json:"standardHoursPerDay"`
	StandardHoursPerWeek float64 `json:"standardHoursPerWeek"`

	ExtraHourMultiplier float64 `json:"extraHourMultiplier"`
	NightHourMultiplier float64 `json:"nightHourMultiplier"`
	HolidayMultiplier   float64 `json:"holidayMultiplier"`

	MaxExtraHoursPerDay   float64 `json:"maxExtraHoursPerDay"`
	MaxExtraHoursPerWeek  float64 `json:"maxExtraHoursPerWeek"`
	MaxExtraHoursPerMonth float64 `json:"maxExtraHoursPerMonth"`

	DSROnExtraHours bool `json:"dsrOnExtraHours"`

	LunchBreakDuration             int     `json:"lunchBreakDuration"`
	MinimumIntervalBetweenJourneys float64 `json:"minimumIntervalBetweenJourneys"`

	CCTRules map[string]any `json:"cctRules"`
}

// ParseConfig converts a JSON document into a clock.Config with statutory
// defaults applied. An empty document yields the pure statutory config.
func ParseConfig(raw []byte) (clock.Config, error) {
	var cj configJSON
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cj); err != nil {
			return clock.Config{}, fmt.Errorf("invalid rule config: %w", err)
		}
	}

	cfg := clock.Config{
		StandardHoursPerDay:   cj.StandardHoursPerDay,
		StandardHoursPerWeek:  cj.StandardHoursPerWeek,
		ExtraHourMultiplier:   cj.ExtraHourMultiplier,
		NightHourMultiplier:   cj.NightHourMultiplier,
		HolidayMultiplier:     cj.HolidayMultiplier,
		MaxExtraHoursPerDay:   cj.MaxExtraHoursPerDay,
		MaxExtraHoursPerWeek:  cj.MaxExtraHoursPerWeek,
		MaxExtraHoursPerMonth: cj.MaxExtraHoursPerMonth,
		WeeklyRestOnExtra:     cj.DSROnExtraHours,
		BreakMinutes:          cj.LunchBreakDuration,
		MinRestHours:          cj.MinimumIntervalBetweenJourneys,
	}
	if len(cj.CCTRules) > 0 {
		cfg.Overrides = cj.CCTRules
	}
	return cfg.WithDefaults(), nil
}

// DefaultConfig returns the pure statutory configuration.
func DefaultConfig() clock.Config {
	return clock.Config{}.WithDefaults()
}
