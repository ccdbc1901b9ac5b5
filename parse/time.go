package parse

import (
	"regexp"
	"strconv"
	"time"

	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// TIME TOKEN PARSER
// =============================================================================

// TimeOfDay is an hour/minute pair with no date attached. All times are
// local wall-clock on the record's calendar date; there is no timezone
// handling at this layer.
type TimeOfDay struct {
	Hour   int
	Minute int
}

var (
	nonDigit  = regexp.MustCompile(`[^\d]`)
	timeToken = regexp.MustCompile(`(\d{1,2}):?(\d{2})?`)
)

// Time parses a free-form time token as produced by time-clock terminals.
//
// Accepted shapes:
//   - "08:00"  colon-separated
//   - "0800"   exactly 4 digits after stripping separators, colon inserted
//   - "8"/"08" partial token, minutes default to 0
//
// Fails with clock.ErrInvalidTimeFormat when no digit run of length 1-4 can
// be extracted.
func Time(token string) (TimeOfDay, error) {
	// Terminals emit "0800" as often as "08:00"; normalize the former so a
	// single pattern handles both.
	if digits := nonDigit.ReplaceAllString(token, ""); len(digits) == 4 {
		token = digits[:2] + ":" + digits[2:]
	}

	m := timeToken.FindStringSubmatch(token)
	if m == nil {
		return TimeOfDay{}, &clock.TokenError{Token: token, Err: clock.ErrInvalidTimeFormat}
	}

	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// At combines the time of day with a calendar date to produce a full
// timestamp on that day.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}
