// Package ingest implements the fund-sheet ingestion pipeline: CSV parsing,
// header normalization, record building, and multi-source reconciliation.
package ingest

import "strings"

// ParseLine splits one CSV line into trimmed fields on unquoted commas.
// A double quote toggles in-quotes mode; a doubled quote inside quoted mode
// emits a single literal quote. Malformed quoting never errors — an
// unterminated quote consumes to end of line.
func ParseLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++ // skip the escape
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))
	return fields
}

// ParseDocument splits whole CSV text into a header row and data rows.
// Handles both \r\n and \n line endings. The first non-blank line is the
// header; blank lines thereafter contribute no record. An empty document
// yields no headers and no rows.
func ParseDocument(text string) (headers []string, rows [][]string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}

	headers = ParseLine(lines[0])
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}
	return headers, rows
}
