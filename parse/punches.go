package parse

import (
	"time"

	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// PUNCH BUILDER
// =============================================================================

// BuildPunches pairs ordered raw time tokens into up to three (entry, exit)
// intervals on the base date:
//
//	token 0 -> entry1, 1 -> exit1, 2 -> entry2, 3 -> exit2, 4 -> entry3, 5 -> exit3
//
// Tokens beyond index 5 are ignored. A token that fails the time parser is
// skipped and its slot left unset rather than aborting the record:
// partial-day data is preserved and the incomplete punch contributes zero
// hours downstream.
func BuildPunches(tokens []string, base time.Time) [clock.MaxPunches]clock.Punch {
	var punches [clock.MaxPunches]clock.Punch

	for i, token := range tokens {
		if i >= clock.MaxPunches*2 {
			break
		}
		tod, err := Time(token)
		if err != nil {
			continue
		}
		ts := tod.At(base)

		slot := i / 2
		if i%2 == 0 {
			punches[slot].Entry = &ts
		} else {
			punches[slot].Exit = &ts
		}
	}
	return punches
}
