// CLAUDE:SUMMARY Lenient line-oriented delimited-text parser: delimiter sniffing, normalized headers, row maps.
package tabular

import (
	"strings"

	"github.com/moisessantoslimaadm-debug/matriculas/pkg/normalize"
)

// Row maps a normalized header key to the raw cell value.
type Row map[string]string

// DetectDelimiter inspects the first line: a semicolon anywhere means
// semicolon-delimited, otherwise comma. Brazilian administrative exports use
// both, frequently within the same secretariat.
func DetectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, ';') {
		return ';'
	}
	return ','
}

// Parse converts delimited text into row maps keyed by normalized headers.
//
// This is deliberately not encoding/csv: source spreadsheets are messy
// government exports, so the contract is line-oriented and forgiving — one
// layer of surrounding quotes is stripped per field, short rows yield empty
// strings for missing trailing columns, and rows whose every field is empty
// are dropped. Deterministic over the same text.
func Parse(text string) []Row {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	delim := DetectDelimiter(lines[0])
	headers := splitFields(lines[0], delim)
	for i := range headers {
		headers[i] = normalize.Key(headers[i])
	}

	var rows []Row
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitFields(line, delim)

		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			v := ""
			if i < len(fields) {
				v = fields[i]
			}
			if v != "" {
				empty = false
			}
			row[h] = v
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// splitLines accepts both bare and carriage-return line endings.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	// Trim trailing blank lines so the header of an empty file yields no rows.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitFields splits a line on delim, trims each field and strips one layer
// of surrounding double quotes.
func splitFields(line string, delim rune) []string {
	fields := strings.Split(line, string(delim))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if len(f) >= 2 && f[0] == '"' && f[len(f)-1] == '"' {
			f = f[1 : len(f)-1]
		}
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}
