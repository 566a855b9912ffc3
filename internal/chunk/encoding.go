package chunk

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DecodeWithFallback implements the encoding fallback ladder from spec.md
// §4.2's Failure policy: UTF-8 -> Latin-1 -> CP-1252 -> UTF-8-with-BOM.
// Returns the decoded text and the name of the rung that succeeded.
func DecodeWithFallback(raw []byte) (string, string) {
	if utf8.Valid(raw) {
		return string(raw), "utf-8"
	}

	if text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil {
		return string(text), "latin-1"
	}

	if text, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
		return string(text), "cp1252"
	}

	if text, err := unicode.UTF8BOM.NewDecoder().Bytes(raw); err == nil {
		return string(text), "utf-8-bom"
	}

	// Last resort: lossily treat as UTF-8, replacing invalid sequences.
	return string(raw), "utf-8"
}
