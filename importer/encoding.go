package importer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText interprets an upload as UTF-8 when valid, otherwise as
// Latin-1. Legacy terminal exports routinely arrive in ISO 8859-1.
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Latin-1 decoding cannot actually fail (every byte maps), but keep
		// the raw bytes as a last resort.
		return string(data)
	}
	return string(decoded)
}
