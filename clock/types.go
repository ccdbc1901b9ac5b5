/*
Package clock provides the canonical datatypes of the attendance engine.

PURPOSE:
  This package contains the types shared by every other package: the
  canonical time-clock record built by the import pipeline, the rule
  configuration supplied per organization, and the calculation result
  produced by the rule engine.

KEY CONCEPTS IN THIS FILE (types.go):
  - Punch: One (entry, exit) timestamp pair on a given day
  - Record: Canonical punches for one employee on one calendar day
  - Config: Policy values driving the hour calculation
  - Result: Regular/extra/night/holiday split plus audit trail

DESIGN PRINCIPLES:
  1. One record per (employee, date): re-import overwrites, never duplicates
  2. Partial data is data: a punch may miss either endpoint and still count
     for the endpoints it has
  3. Results are immutable: recalculation produces a fresh Result
  4. Type Safety: EmployeeID is a distinct type so internal references are
     never confused with raw terminal identifiers

SEE ALSO:
  - errors.go: Error taxonomy for the whole engine
  - parse: Builds Punches from raw file tokens
  - rules: Consumes Record + Config, produces Result
*/
package clock

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// EmployeeID is the internal employee reference. Raw files carry external
// identifiers (PIS, matricula); the import pipeline resolves them through a
// Directory before a Record is ever created.
type EmployeeID string

// Employee is the directory entry an external identifier resolves to.
type Employee struct {
	ID         EmployeeID
	ExternalID string // PIS or matricula as printed by the terminal
	Name       string
}

// =============================================================================
// PUNCH - One entry/exit pair
// =============================================================================

// MaxPunches is the number of (entry, exit) intervals a day can carry.
// Time tokens beyond entry3/exit3 are ignored by the punch builder.
const MaxPunches = 3

// Punch is one (entry, exit) interval. Either endpoint may be nil when the
// source line carried a token that failed to parse: partial-day data is
// preserved, and an incomplete punch simply contributes zero hours.
type Punch struct {
	Entry *time.Time
	Exit  *time.Time
}

// Complete reports whether both endpoints are present.
func (p Punch) Complete() bool { return p.Entry != nil && p.Exit != nil }

// Hours returns the interval length in hours, zero when incomplete.
// Overnight shifts (exit before entry on the wall clock) are handled by the
// rule logic, not here; this is the raw difference.
func (p Punch) Hours() float64 {
	if !p.Complete() {
		return 0
	}
	return p.Exit.Sub(*p.Entry).Minutes() / 60
}

// =============================================================================
// RECORD - Canonical punches for one employee on one day
// =============================================================================

// Record is the canonical time-clock record for one (employee, date).
// The import pipeline upserts it by that key, so re-importing a file
// overwrites rather than duplicates.
type Record struct {
	EmployeeID EmployeeID
	Date       time.Time // calendar date, midnight local
	Punches    [MaxPunches]Punch
	Holiday    bool
	Weekend    bool
	SourceFile string
}

// Day returns the record's calendar date truncated to midnight UTC,
// the form used as the upsert key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// CONFIG - Policy values supplied per organization or per simulation
// =============================================================================

// Config is the named bag of policy values a calculation runs under.
// Zero values mean "use the statutory default"; call WithDefaults before
// handing a Config to a strategy. Immutable per calculation call.
type Config struct {
	StandardHoursPerDay  float64
	StandardHoursPerWeek float64

	ExtraHourMultiplier float64
	NightHourMultiplier float64
	HolidayMultiplier   float64

	MaxExtraHoursPerDay   float64
	MaxExtraHoursPerWeek  float64
	MaxExtraHoursPerMonth float64

	// WeeklyRestOnExtra: whether weekly-rest pay (DSR) accrues on overtime.
	WeeklyRestOnExtra bool

	BreakMinutes int     // standard meal break, minutes
	MinRestHours float64 // minimum rest between shifts

	// Overrides carries collective-bargaining (CCT) values. A non-empty map
	// is what makes the bargaining strategy applicable.
	Overrides map[string]any
}

// Statutory defaults applied by WithDefaults.
const (
	DefaultStandardHoursPerDay  = 8
	DefaultStandardHoursPerWeek = 44
	DefaultExtraHourMultiplier  = 1.5
	DefaultNightHourMultiplier  = 1.2
	DefaultHolidayMultiplier    = 2.0
)

// WithDefaults returns a copy with statutory defaults filled in for any
// value left at zero. The Overrides map is shared, not copied: strategies
// must treat it as read-only.
func (c Config) WithDefaults() Config {
	if c.StandardHoursPerDay == 0 {
		c.StandardHoursPerDay = DefaultStandardHoursPerDay
	}
	if c.StandardHoursPerWeek == 0 {
		c.StandardHoursPerWeek = DefaultStandardHoursPerWeek
	}
	if c.ExtraHourMultiplier == 0 {
		c.ExtraHourMultiplier = DefaultExtraHourMultiplier
	}
	if c.NightHourMultiplier == 0 {
		c.NightHourMultiplier = DefaultNightHourMultiplier
	}
	if c.HolidayMultiplier == 0 {
		c.HolidayMultiplier = DefaultHolidayMultiplier
	}
	return c
}

// =============================================================================
// RESULT - Output of one calculation call
// =============================================================================

// DayBreakdown is the per-day split inside a Result.
type DayBreakdown struct {
	Date         time.Time
	RegularHours float64
	ExtraHours   float64
	NightHours   float64
	HolidayHours float64
}

// Result is a calculation outcome. Produced fresh on every call, never
// mutated; a recalculated day replaces its previous Result wholesale.
//
// HolidayHours is a parallel classification, not a deduction: on a holiday
// the full worked hours appear here in addition to the regular/extra split.
type Result struct {
	TotalHours   float64
	ExtraHours   float64
	NightHours   float64
	HolidayHours float64

	// WeeklyRestHours is set only when the config applies weekly-rest pay
	// to overtime.
	WeeklyRestHours float64

	// AppliedRules lists the identifiers of every strategy that contributed,
	// in application order. An override strategy appends its own identifier
	// after the base strategy's.
	AppliedRules []string

	Breakdown []DayBreakdown
}
