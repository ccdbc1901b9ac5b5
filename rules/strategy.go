/*
Package rules implements the labor-rule calculation engine.

PURPOSE:
  Given one day's canonical punches and a configuration, derive the
  regular/extra/night/holiday hour split. Calculation is pure and stateless:
  strategies never touch storage and are total over their input domain -
  missing intervals simply contribute zero hours.

STRATEGY PATTERN:
  Each rule is a Strategy with an identifier, an applicability check and a
  pure Calculate. The Engine holds an explicit priority-ordered list and
  applies exactly ONE strategy per day - the highest-priority applicable
  one. Strategies are never composed or summed.

AVAILABLE STRATEGIES:
  Statutory  (CLT_STANDARD) - always applicable, the fallback of last resort
  Bargaining (CCT_CUSTOM)   - applicable when collective-bargaining
                              overrides are configured; outranks Statutory

SIMULATION:
  Engine.Simulate forces a specific strategy by identifier, bypassing
  applicability and priority, for what-if analysis before a new rule is
  published.

SEE ALSO:
  - statutory.go:  the base hour math
  - bargaining.go: the override strategy
  - engine.go:     selection and simulation
*/
package rules

import "github.com/warp/hours-engine/clock"

// Strategy is one pluggable calculation rule. Implementations must be pure:
// same record + config, same result.
type Strategy interface {
	// Code returns the unique rule identifier recorded in the audit trail.
	Code() string

	// CanApply reports whether this rule applies to the given day.
	CanApply(rec clock.Record, cfg clock.Config) bool

	// Calculate derives the hour split for the day. Must not fail for a
	// structurally valid record: inputs are defensively defaulted.
	Calculate(rec clock.Record, cfg clock.Config) clock.Result
}
