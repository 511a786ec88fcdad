// CLAUDE:SUMMARY Text normalization for spreadsheet ingestion: header keys, Brazilian dates, decimal-comma coordinates.
package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key reduces a column header to a comparable form: lower-cased, accents
// stripped, everything non-alphanumeric removed. "Nº Matrícula",
// "numero_matricula" and "Numero Matricula" all collapse to the same key.
// The ordinal-sign abbreviation nº/n° expands to "numero" so abbreviated
// headers collide with spelled-out ones.
func Key(raw string) string {
	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, "nº", "numero")
	s = strings.ReplaceAll(s, "n°", "numero")
	s, _, _ = transform.String(stripAccents, s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatDate converts ISO dates (YYYY-MM-DD) to the registry's DD/MM/YYYY
// form. Dates already in DD/MM/YYYY pass through, as does anything
// unrecognized: unknown formats are preserved verbatim for human review,
// never rejected.
func FormatDate(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) == 10 && s[2] == '/' && s[5] == '/' {
		return s
	}
	if len(s) == 10 && s[4] == '-' && s[7] == '-' {
		return s[8:10] + "/" + s[5:7] + "/" + s[0:4]
	}
	return raw
}

// ParseCoordinate parses a latitude/longitude accepting either comma or dot
// as the decimal separator. Returns 0 when the input is unparseable; callers
// never see NaN.
func ParseCoordinate(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Digits strips every non-digit rune.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
