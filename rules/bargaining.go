package rules

import "github.com/warp/hours-engine/clock"

// CodeBargaining identifies the collective-bargaining override rule.
const CodeBargaining = "CCT_CUSTOM"

// Override keys the bargaining rule recognizes. Values come from a JSON
// override map, so numbers arrive as float64 and flags as bool.
const (
	OverrideStandardHoursPerDay = "standardHoursPerDay"
	OverrideExtraMultiplier     = "extraHourMultiplier"
	OverrideNightMultiplier     = "nightHourMultiplier"
	OverrideHolidayMultiplier   = "holidayMultiplier"
	OverrideWeeklyRestOnExtra   = "weeklyRestOnExtra"
)

// Bargaining applies collective-bargaining (CCT) overrides on top of the
// statutory base. It delegates the base computation to Statutory under an
// effective config with the overrides folded in, then records itself in the
// audit trail after the base rule.
type Bargaining struct{}

func (Bargaining) Code() string { return CodeBargaining }

// CanApply: only when overrides are actually configured.
func (Bargaining) CanApply(_ clock.Record, cfg clock.Config) bool {
	return len(cfg.Overrides) > 0
}

func (b Bargaining) Calculate(rec clock.Record, cfg clock.Config) clock.Result {
	result := Statutory{}.Calculate(rec, b.effective(cfg))
	result.AppliedRules = append(result.AppliedRules, CodeBargaining)
	return result
}

// effective folds recognized override values into a copy of the config.
// Unrecognized keys are ignored so a bargaining agreement can carry values
// consumed by other layers (payroll export, reporting).
func (Bargaining) effective(cfg clock.Config) clock.Config {
	if v, ok := floatOverride(cfg.Overrides, OverrideStandardHoursPerDay); ok {
		cfg.StandardHoursPerDay = v
	}
	if v, ok := floatOverride(cfg.Overrides, OverrideExtraMultiplier); ok {
		cfg.ExtraHourMultiplier = v
	}
	if v, ok := floatOverride(cfg.Overrides, OverrideNightMultiplier); ok {
		cfg.NightHourMultiplier = v
	}
	if v, ok := floatOverride(cfg.Overrides, OverrideHolidayMultiplier); ok {
		cfg.HolidayMultiplier = v
	}
	if v, ok := cfg.Overrides[OverrideWeeklyRestOnExtra].(bool); ok {
		cfg.WeeklyRestOnExtra = v
	}
	return cfg
}

func floatOverride(overrides map[string]any, key string) (float64, bool) {
	switch v := overrides[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
