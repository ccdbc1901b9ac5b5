package parse

import (
	"strings"

	"github.com/warp/hours-engine/clock"
)

// =============================================================================
// SPREADSHEET ROW NORMALIZER
// =============================================================================
// Spreadsheets name their columns instead of relying on position, but the
// naming varies across exports (Portuguese and English, several casings).
// Lookup is case-insensitive over a fixed alias list per field.

var (
	idAliases   = []string{"employeeid", "pis", "matricula", "matrícula"}
	nameAliases = []string{"name", "nome"}
	dateAliases = []string{"date", "data"}

	// entry/exit column aliases per punch slot, in pairing order
	entryAliases = []string{"entry%", "entrada%"}
	exitAliases  = []string{"exit%", "saida%", "saída%"}
)

// NormalizeRow extracts the same fields as NormalizeLine, reading named
// columns from one spreadsheet row. Keys are matched case-insensitively.
// number is the 1-based sheet row (the header is row 1), carried into the
// error like a line number.
func NormalizeRow(row map[string]string, number int) (Line, error) {
	folded := make(map[string]string, len(row))
	for k, v := range row {
		folded[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	id := firstOf(folded, idAliases)
	if id == "" {
		return Line{}, &clock.LineError{
			Line:    number,
			Content: rowContent(row),
			Err:     clock.ErrUnrecognizedLineFormat,
		}
	}

	var times []string
	for slot := 1; slot <= clock.MaxPunches; slot++ {
		if v := slotValue(folded, entryAliases, slot); v != "" {
			times = append(times, v)
		}
		if v := slotValue(folded, exitAliases, slot); v != "" {
			times = append(times, v)
		}
	}

	return Line{
		ExternalID: id,
		Name:       firstOf(folded, nameAliases),
		DateToken:  firstOf(folded, dateAliases),
		TimeTokens: times,
	}, nil
}

func firstOf(row map[string]string, aliases []string) string {
	for _, a := range aliases {
		if v := row[a]; v != "" {
			return v
		}
	}
	return ""
}

func slotValue(row map[string]string, aliases []string, slot int) string {
	for _, a := range aliases {
		key := strings.Replace(a, "%", digit(slot), 1)
		if v := row[key]; v != "" {
			return v
		}
	}
	return ""
}

func digit(n int) string { return string(rune('0' + n)) }

func rowContent(row map[string]string) string {
	parts := make([]string, 0, len(row))
	for k, v := range row {
		parts = append(parts, k+"="+v)
	}
	return truncate(strings.Join(parts, ";"), 100)
}
