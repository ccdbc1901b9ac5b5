package parse

import (
	"regexp"
	"strconv"
	"time"

	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// DATE TOKEN PARSER
// =============================================================================

// The three layouts terminals actually emit, tried in order. They are
// mutually exclusive by separator and length, but the order is the defined
// tie-break should a future layout be ambiguous.
var dateLayouts = []struct {
	pattern *regexp.Regexp
	// index of day, month, year submatch
	day, month, year int
}{
	{regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})`), 1, 2, 3}, // DD/MM/YYYY
	{regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`), 3, 2, 1}, // YYYY-MM-DD
	{regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`), 1, 2, 3},   // DDMMYYYY
}

// Date parses a free-form date token. The first structurally matching
// layout wins. The result is a calendar date with no time-of-day component
// (midnight UTC). Fails with clock.ErrInvalidDateFormat when no layout
// matches or the matched fields are not a real calendar date.
func Date(token string) (time.Time, error) {
	for _, l := range dateLayouts {
		m := l.pattern.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[l.day])
		month, _ := strconv.Atoi(m[l.month])
		year, _ := strconv.Atoi(m[l.year])

		if month < 1 || month > 12 || day < 1 || day > 31 {
			break
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, &clock.TokenError{Token: token, Err: clock.ErrInvalidDateFormat}
}
