/*
line.go - Layout detection and extraction for raw text lines

PURPOSE:
  Classifies one raw line into one of three known layouts and extracts the
  employee identifier, name hint, date token and ordered time tokens. This
  is the most heuristic part of the import path: real terminal exports are
  inconsistent, so detection is an ordered fallthrough, not a grammar.

ACCEPTED LAYOUTS (in detection order):
  1. Semicolon-delimited:  PIS;Nome;Data;Hora1;Hora2;...
  2. Pipe-delimited:       Matricula|Nome|Data|Hora1|Hora2|...
  3. Fixed-width legacy:   id[0,12) name[12,42) date[42,52) then 8-char
                           time chunks. Applies only to lines longer than
                           50 characters containing neither ';' nor '|'.

KNOWN LIMITATION:
  The fallthrough is inherently ambiguous for adversarial input (a random
  line over 50 characters with no delimiter is "fixed-width"). The three
  detectors are an explicit priority list; a line is never tested against
  more rules than needed to find a match.

HEADERS AND BLANKS:
  Header lines (first token starting with pis/matricula/matrícula, or
  containing both nome and data) are recognized so the pipeline can skip
  them without counting an error. Blank lines are skipped silently.

SEE ALSO:
  - row.go: the named-column equivalent for spreadsheet rows
  - importer: drives this per line and accumulates failures
*/
package parse

import (
	"strings"

	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// NORMALIZED LINE
// =============================================================================

// Layout identifies which detector matched a line.
type Layout string

const (
	LayoutSemicolon  Layout = "semicolon"
	LayoutPipe       Layout = "pipe"
	LayoutFixedWidth Layout = "fixed-width"
)

// Line is the layout-independent extraction of one raw record: who, when,
// and the ordered raw time tokens, still unparsed.
type Line struct {
	Layout     Layout
	ExternalID string
	Name       string
	DateToken  string
	TimeTokens []string
}

// Fixed-width legacy layout boundaries.
const (
	fixedIDEnd      = 12
	fixedNameEnd    = 42
	fixedDateEnd    = 52
	fixedTimeWidth  = 8
	fixedMinLineLen = 50
)

// =============================================================================
// HEADER DETECTION
// =============================================================================

// IsHeader reports whether the line is a column header rather than data.
// Header lines are skipped by the pipeline without counting as errors.
func IsHeader(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(lower, "pis") ||
		strings.HasPrefix(lower, "matricula") ||
		strings.HasPrefix(lower, "matrícula") ||
		(strings.Contains(lower, "nome") && strings.Contains(lower, "data"))
}

// =============================================================================
// LINE NORMALIZER
// =============================================================================

// NormalizeLine classifies a raw line and extracts its fields. number is the
// 1-based line number, carried into the error so batch reports can point at
// the offending line. Blank and header lines are the caller's concern.
func NormalizeLine(line string, number int) (Line, error) {
	if strings.Contains(line, ";") {
		if l, ok := splitDelimited(line, ";", LayoutSemicolon); ok {
			return l, nil
		}
	}
	if strings.Contains(line, "|") {
		if l, ok := splitDelimited(line, "|", LayoutPipe); ok {
			return l, nil
		}
	}
	if len(line) > fixedMinLineLen && !strings.ContainsAny(line, ";|") {
		return fixedWidth(line), nil
	}
	return Line{}, &clock.LineError{
		Line:    number,
		Content: truncate(line, 100),
		Err:     clock.ErrUnrecognizedLineFormat,
	}
}

// splitDelimited handles the semicolon and pipe layouts, which share the
// same field mapping: identifier, name, date, then times. Empty time fields
// are dropped.
func splitDelimited(line, sep string, layout Layout) (Line, bool) {
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 {
		return Line{}, false
	}

	var times []string
	for _, t := range parts[3:] {
		if t != "" {
			times = append(times, t)
		}
	}
	return Line{
		Layout:     layout,
		ExternalID: parts[0],
		Name:       parts[1],
		DateToken:  parts[2],
		TimeTokens: times,
	}, true
}

// fixedWidth slices the legacy layout by byte offsets. Legacy exports are
// ASCII, so byte and character positions coincide.
func fixedWidth(line string) Line {
	id := strings.TrimSpace(slice(line, 0, fixedIDEnd))
	name := strings.TrimSpace(slice(line, fixedIDEnd, fixedNameEnd))
	date := strings.TrimSpace(slice(line, fixedNameEnd, fixedDateEnd))

	var times []string
	rest := strings.TrimSpace(slice(line, fixedDateEnd, len(line)))
	for start := 0; start < len(rest); start += fixedTimeWidth {
		end := start + fixedTimeWidth
		if end > len(rest) {
			end = len(rest)
		}
		if chunk := strings.TrimSpace(rest[start:end]); chunk != "" {
			times = append(times, chunk)
		}
	}
	return Line{
		Layout:     LayoutFixedWidth,
		ExternalID: id,
		Name:       name,
		DateToken:  date,
		TimeTokens: times,
	}
}

func slice(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
