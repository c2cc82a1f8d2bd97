package ingest

import "strings"

// NormalizeKey maps a raw sheet header to its canonical camelCase field name.
// The mapping is pure and deterministic so that semantically identical columns
// across sheets collapse onto one field regardless of punctuation or case:
//
//	"% Large-cap Holding" -> "percentLargecapHolding"
//	"CAGR 3Y"             -> "cagr3y"
func NormalizeKey(header string) string {
	key := strings.TrimSpace(header)

	// Already-canonical keys are fixed points: re-normalizing a camelCase
	// identifier must not flatten its word boundaries.
	if isCanonicalKey(key) {
		return key
	}

	if strings.HasPrefix(key, "%") {
		key = "percent" + key[1:]
	}

	key = strings.ToLower(key)

	// Keep only lowercase letters, digits, and spaces.
	var cleaned strings.Builder
	for _, ch := range key {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') || ch == ' ' {
			cleaned.WriteRune(ch)
		}
	}

	words := strings.Fields(cleaned.String())
	if len(words) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString(words[0])
	for _, word := range words[1:] {
		out.WriteString(strings.ToUpper(word[:1]))
		out.WriteString(word[1:])
	}
	return out.String()
}

// isCanonicalKey reports whether s is already in the camelCase form this
// function produces: alphanumeric only, not starting with an uppercase letter.
// Every uppercase letter in such a string marks a word boundary, so the
// string is reachable as a normalization output and must map to itself.
func isCanonicalKey(s string) bool {
	if s == "" {
		return false
	}
	first := s[0]
	if first >= 'A' && first <= 'Z' {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		return false
	}
	return true
}
