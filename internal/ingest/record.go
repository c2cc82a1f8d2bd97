package ingest

import (
	"strconv"
	"strings"

	"github.com/roshan4665/fundfolio/internal/models"
)

// notApplicableTokens are cell contents treated as "no value reported".
var notApplicableTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n.a.": true,
	"n/a":  true,
}

// ClassifyCell resolves one raw cell into a FieldValue. The cell is numeric
// only if its trimmed content — after an optional trailing '%' is stripped —
// equals exactly the textual rendering of its parsed float. That rejects
// grouped digits ("1,000"), leading zeros ("012"), and exponent notation
// from being misread as numbers; they stay text.
func ClassifyCell(raw string) models.FieldValue {
	s := strings.TrimSpace(raw)

	if notApplicableTokens[strings.ToLower(s)] {
		return models.NullField()
	}

	candidate := s
	if strings.HasSuffix(s, "%") {
		stripped := strings.TrimSpace(strings.TrimSuffix(s, "%"))
		if isCanonicalNumber(stripped) {
			candidate = stripped
		}
	}

	if isCanonicalNumber(candidate) {
		n, _ := strconv.ParseFloat(candidate, 64)
		return models.NumberField(n)
	}
	return models.TextField(s)
}

// isCanonicalNumber reports whether s parses as a finite float whose shortest
// decimal rendering reproduces s exactly.
func isCanonicalNumber(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return strconv.FormatFloat(n, 'f', -1, 64) == s
}

// BuildRecords combines normalized headers with parsed data rows into partial
// fund records. A row shorter than the header list stores null for the
// missing trailing fields. Rows lacking a usable name are dropped entirely.
func BuildRecords(headers []string, rows [][]string) []models.FundRecord {
	canonical := make([]string, len(headers))
	for i, h := range headers {
		canonical[i] = NormalizeKey(h)
	}

	var records []models.FundRecord
	for _, row := range rows {
		record := make(models.FundRecord, len(canonical))
		for i, field := range canonical {
			if field == "" {
				continue
			}
			if i >= len(row) {
				record[field] = models.NullField()
				continue
			}
			record[field] = ClassifyCell(row[i])
		}
		if record.Name() == "" {
			continue
		}
		records = append(records, record)
	}
	return records
}
